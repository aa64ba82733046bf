package config

import (
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	assert.Equal(t, 3000, GetInt("port"))
	assert.Equal(t, "bird", GetString("bird_command"))
	assert.Equal(t, 50, GetInt("default_count"))
	assert.Equal(t, 10*time.Minute, GetDuration("tweet_cache_ttl"))
	assert.Equal(t, 10*time.Second, GetDuration("price_cache_ttl"))
	assert.False(t, GetBool("price_stream"))
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("BIRD_COMMAND", "/usr/local/bin/bird")
	t.Setenv("DEFAULT_COUNT", "25")
	t.Setenv("LLM_TIMEOUT", "2m")

	assert.Equal(t, "/usr/local/bin/bird", GetString("bird_command"))
	assert.Equal(t, 25, GetInt("default_count"))
	assert.Equal(t, 2*time.Minute, GetDuration("llm_timeout"))
}

func TestGetList(t *testing.T) {
	t.Setenv("PRICE_SYMBOLS", " BTC, ,eth ,SOL,")
	assert.Equal(t, []string{"BTC", "eth", "SOL"}, GetList("price_symbols"))
}
