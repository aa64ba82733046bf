package telegram

import (
	"bytes"
	"context"
	"github.com/fightingentropy/bird-eye/internal/metrics"
	"github.com/fightingentropy/bird-eye/lib/translation"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"runtime"
	"strings"
)

// NewBot creates new telegram bot
func NewBot(c BotConfig, services Services) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:      bot,
		Config:   c,
		services: services,
	}, nil
}

// GetUpdatesChannel gets new updates updates
func (b *Bot) GetUpdatesChannel() tgbotapi.UpdatesChannel {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig)
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message: %v", m)
}

// Run answers commands until ctx is cancelled
func (b *Bot) Run(ctx context.Context) {
	updates := b.GetUpdatesChannel()
	defer b.Bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				log.Debug("Received non-message or non-command")
				continue
			}
			go b.handleCommand(ctx, update)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	err := b.SendMessage(Message{
		ChatID:    update.Message.Chat.ID,
		Text:      b.HandleUpdate(ctx, update),
		MessageID: update.Message.MessageID,
	})
	if err != nil {
		log.Errorf("Failed to send message: %v", err)
	}
}

// HandleUpdate processes Telegram updates
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) string {
	log.Debugf("received command: %s", u.Message.Command())
	return b.Reply(ctx, u.Message.Command(), u.Message.CommandArguments())
}

// Reply runs one bot command and renders its MarkdownV2 answer
func (b *Bot) Reply(ctx context.Context, cmd, args string) string {
	var (
		text string
		err  error
	)

	switch cmd {
	case "tweets":
		text, err = b.commandTweets(ctx, args)
	case "summary":
		text, err = b.commandSummary(ctx, args)
	case "ask":
		text, err = b.commandAsk(ctx, args)
	case "prices":
		text, err = b.commandPrices(ctx)
	default:
		return escape(translation.Translate(helpMessage))
	}

	metrics.BotCommands.WithLabelValues(cmd, metrics.Outcome(err)).Inc()
	if err != nil {
		log.WithError(err).WithField("command", cmd).Error("bot command failed")
		return formatError(err)
	}
	return clip(text)
}

func (b *Bot) commandTweets(ctx context.Context, args string) (string, error) {
	cmd, err := b.services.Parser.Parse(args)
	if err != nil {
		return "", err
	}
	payload, err := b.services.Tweets.Get(ctx, cmd, false)
	if err != nil {
		return "", err
	}
	return formatTweets(payload, tweetsPerMessage), nil
}

func (b *Bot) commandSummary(ctx context.Context, args string) (string, error) {
	cmd, err := b.services.Parser.Parse(args)
	if err != nil {
		return "", err
	}
	payload, err := b.services.Tweets.Get(ctx, cmd, false)
	if err != nil {
		return "", err
	}
	result, err := b.services.Summaries.Summarize(ctx, "", payload)
	if err != nil {
		return "", err
	}
	return formatSummary(result), nil
}

// commandAsk answers a question over the default timeline
func (b *Bot) commandAsk(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return escape(translation.Translate(askUsage)), nil
	}
	payload, err := b.services.Tweets.Get(ctx, b.services.Parser.Default(), false)
	if err != nil {
		return "", err
	}
	answer, err := b.services.Summaries.Chat(ctx, question, payload)
	if err != nil {
		return "", err
	}
	return escape(answer.Answer), nil
}

func (b *Bot) commandPrices(ctx context.Context) (string, error) {
	snapshot, err := b.services.Prices.Get(ctx)
	if err != nil {
		return "", err
	}
	return formatPrices(snapshot, b.services.Prices.Symbols()), nil
}
