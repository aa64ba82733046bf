package main

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/fightingentropy/bird-eye/config"
	"github.com/fightingentropy/bird-eye/internal/bird"
	"github.com/fightingentropy/bird-eye/internal/cache"
	"github.com/fightingentropy/bird-eye/internal/command"
	"github.com/fightingentropy/bird-eye/internal/database"
	"github.com/fightingentropy/bird-eye/internal/llm"
	"github.com/fightingentropy/bird-eye/internal/metrics"
	"github.com/fightingentropy/bird-eye/internal/price"
	"github.com/fightingentropy/bird-eye/internal/server"
	"github.com/fightingentropy/bird-eye/internal/summary"
	"github.com/fightingentropy/bird-eye/internal/telegram"
	"github.com/fightingentropy/bird-eye/internal/tweets"
	"github.com/fightingentropy/bird-eye/internal/types"
	"github.com/fightingentropy/bird-eye/lib/translation"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

const metricsSaveInterval = 5 * time.Minute

// app wires the services every entry point shares
type app struct {
	parser    *command.Parser
	tweets    *tweets.Service
	summaries *summary.Service
	prices    *price.Service
}

func init() {
	config.InitConfig()
	setupLogging()
}

func main() {
	translation.Configure("locales", config.GetString("lang"))

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	log.SetLevel(log.ErrorLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	if strings.EqualFold(config.GetString("log_format"), "json") {
		log.SetFormatter(&log.JSONFormatter{})
	}
	log.Debug("Starting bird-eye...")
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "bird-eye",
		Short:        "Tweet dashboard over the bird CLI",
		Long:         "bird-eye serves a dashboard of bird timelines with LLM summaries, chat and live crypto prices.",
		SilenceUsage: true,
		RunE:         runServe,
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP dashboard (default)",
		RunE:  runServe,
	})
	root.AddCommand(&cobra.Command{
		Use:   "parse [bird command]",
		Short: "Print the canonical form of a bird command",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := newParser().Parse(strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printJSON(parsed)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "fetch [bird command]",
		Short: "Fetch and print normalized tweets",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			payload, err := a.fetch(cmd.Context(), args)
			if err != nil {
				return err
			}
			return printJSON(payload)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "summarize [bird command]",
		Short: "Fetch tweets and print their topic summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			payload, err := a.fetch(cmd.Context(), args)
			if err != nil {
				return err
			}
			result, err := a.summaries.Summarize(cmd.Context(), "", payload)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	})
	return root
}

func newParser() *command.Parser {
	return command.NewParser(config.GetString("default_list"), config.GetInt("default_count"))
}

func newApp() (*app, error) {
	source, err := price.New(config.GetString("price_source"), config.GetString("api_pro_key"))
	if err != nil {
		return nil, err
	}

	birdClient := bird.NewClient(&bird.ExecRunner{Command: config.GetString("bird_command")}, config.GetDuration("bird_timeout"))
	llmClient := llm.NewClient(llm.Config{
		URL:             config.GetString("llm_url"),
		Model:           config.GetString("llm_model"),
		CredentialsPath: config.GetString("llm_credentials"),
		Timeout:         config.GetDuration("llm_timeout"),
	})

	return &app{
		parser: newParser(),
		tweets: tweets.NewService(
			birdClient,
			cache.New[types.TweetPayload](config.GetDuration("tweet_cache_ttl"), config.GetInt("tweet_cache_max")),
			config.GetInt("default_count"),
			config.GetInt("fallback_count"),
		),
		summaries: summary.NewService(
			llmClient,
			cache.New[types.SummaryPayload](config.GetDuration("summary_cache_ttl"), config.GetInt("summary_cache_max")),
			config.GetInt("summary_max_tweets"),
		),
		prices: price.NewService(
			source,
			config.GetList("price_symbols"),
			config.GetDuration("price_cache_ttl"),
			config.GetDuration("price_timeout"),
		),
	}, nil
}

func (a *app) fetch(ctx context.Context, args []string) (types.TweetPayload, error) {
	parsed, err := a.parser.Parse(strings.Join(args, " "))
	if err != nil {
		return types.TweetPayload{}, err
	}
	return a.tweets.Get(ctx, parsed, true)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !config.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	if path := config.GetString("metrics_db"); path != "" {
		store, err := database.Open(path)
		if err != nil {
			return errors.Wrap(err, "opening metrics database")
		}
		defer store.Close()

		metrics.Load(store)
		go persistMetrics(ctx, store)
		defer metrics.Save(store)
	}

	if config.GetBool("price_stream") {
		go price.NewStream(price.StreamURL, a.prices).Run(ctx)
	}

	if token := config.GetString("telegram_bot_token"); token != "" {
		bot, err := telegram.NewBot(telegram.BotConfig{
			Token:          token,
			Debug:          config.GetBool("debug"),
			UpdatesTimeout: 60,
		}, telegram.Services{
			Parser:    a.parser,
			Tweets:    a.tweets,
			Summaries: a.summaries,
			Prices:    a.prices,
		})
		if err != nil {
			log.Errorf("Failed to create bot: %v", err)
		} else {
			go bot.Run(ctx)
		}
	}

	srv := server.New(a.parser, a.tweets, a.summaries, a.prices, config.GetString("public_dir"))
	return srv.Run(ctx, fmt.Sprintf(":%d", config.GetInt("port")))
}

func persistMetrics(ctx context.Context, store *database.Store) {
	ticker := time.NewTicker(metricsSaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.Save(store)
		}
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
