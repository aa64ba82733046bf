package telegram

import (
	"context"
	"github.com/fightingentropy/bird-eye/internal/command"
	"github.com/fightingentropy/bird-eye/internal/types"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token          string
	Debug          bool
	UpdatesTimeout int
}

type TweetService interface {
	Get(ctx context.Context, cmd command.Parsed, refresh bool) (types.TweetPayload, error)
}

type SummaryService interface {
	Summarize(ctx context.Context, key string, payload types.TweetPayload) (types.SummaryPayload, error)
	Chat(ctx context.Context, question string, payload types.TweetPayload) (types.ChatPayload, error)
}

type PriceService interface {
	Get(ctx context.Context) (types.PriceSnapshot, error)
	Symbols() []string
}

// Services are the dashboard operations the bot exposes as commands
type Services struct {
	Parser    *command.Parser
	Tweets    TweetService
	Summaries SummaryService
	Prices    PriceService
}

// Bot telegram interaction client
type Bot struct {
	Bot      *tgbotapi.BotAPI
	Config   BotConfig
	services Services
}

// Message a telegram message struct
type Message struct {
	ChatID    int64
	MessageID int
	Text      string
}
