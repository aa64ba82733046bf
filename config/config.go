package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"strings"
	"sync"
	"time"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		// .env is optional; real environment variables win over it
		_ = godotenv.Load()

		viper.AutomaticEnv()

		viper.BindEnv("port", "PORT")
		viper.BindEnv("public_dir", "PUBLIC_DIR")
		viper.BindEnv("bird_command", "BIRD_COMMAND")
		viper.BindEnv("bird_timeout", "BIRD_TIMEOUT")
		viper.BindEnv("default_list", "DEFAULT_LIST")
		viper.BindEnv("default_count", "DEFAULT_COUNT")
		viper.BindEnv("fallback_count", "FALLBACK_COUNT")
		viper.BindEnv("tweet_cache_ttl", "TWEET_CACHE_TTL")
		viper.BindEnv("tweet_cache_max", "TWEET_CACHE_MAX")
		viper.BindEnv("llm_url", "LLM_URL")
		viper.BindEnv("llm_model", "LLM_MODEL")
		viper.BindEnv("llm_credentials", "LLM_CREDENTIALS")
		viper.BindEnv("llm_timeout", "LLM_TIMEOUT")
		viper.BindEnv("summary_cache_ttl", "SUMMARY_CACHE_TTL")
		viper.BindEnv("summary_cache_max", "SUMMARY_CACHE_MAX")
		viper.BindEnv("summary_max_tweets", "SUMMARY_MAX_TWEETS")
		viper.BindEnv("price_source", "PRICE_SOURCE")
		viper.BindEnv("price_symbols", "PRICE_SYMBOLS")
		viper.BindEnv("price_cache_ttl", "PRICE_CACHE_TTL")
		viper.BindEnv("price_timeout", "PRICE_TIMEOUT")
		viper.BindEnv("price_stream", "PRICE_STREAM")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("metrics_db", "METRICS_DB")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("log_format", "LOG_FORMAT")
		viper.BindEnv("lang", "LANG")

		viper.SetDefault("port", 3000)
		viper.SetDefault("public_dir", "public")
		viper.SetDefault("bird_command", "bird")
		viper.SetDefault("bird_timeout", "30s")
		viper.SetDefault("default_list", "1933193197817135501")
		viper.SetDefault("default_count", 50)
		viper.SetDefault("fallback_count", 20)
		viper.SetDefault("tweet_cache_ttl", "10m")
		viper.SetDefault("tweet_cache_max", 20)
		viper.SetDefault("llm_url", "https://api.openai.com/v1/responses")
		viper.SetDefault("llm_model", "gpt-4.1-mini")
		viper.SetDefault("llm_credentials", "~/.codex/auth.json")
		viper.SetDefault("llm_timeout", "90s")
		viper.SetDefault("summary_cache_ttl", "15m")
		viper.SetDefault("summary_cache_max", 50)
		viper.SetDefault("summary_max_tweets", 80)
		viper.SetDefault("price_source", "hyperliquid")
		viper.SetDefault("price_symbols", "BTC,ETH,HYPE")
		viper.SetDefault("price_cache_ttl", "10s")
		viper.SetDefault("price_timeout", "8s")
		viper.SetDefault("price_stream", false)
		viper.SetDefault("debug", false)
		viper.SetDefault("log_format", "text")
		viper.SetDefault("lang", "en")
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

func GetDuration(key string) time.Duration {
	InitConfig()
	return viper.GetDuration(key)
}

// GetList splits a comma separated value, dropping blanks
func GetList(key string) []string {
	var out []string
	for _, part := range strings.Split(GetString(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
