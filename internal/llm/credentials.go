package llm

import (
	"encoding/json"
	"github.com/pkg/errors"
	"os"
	"path/filepath"
	"strings"
)

// LoadToken reads the bearer token from a credentials file. JSON files may
// carry it as access_token, tokens.access_token, api_key or OPENAI_API_KEY;
// any other file is taken to contain the bare token.
func LoadToken(path string) (string, error) {
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		return "", errors.Wrap(err, "reading LLM credentials")
	}

	content := strings.TrimSpace(string(data))
	if !strings.HasPrefix(content, "{") {
		if content == "" {
			return "", errors.Errorf("LLM credentials file %s is empty", path)
		}
		return content, nil
	}

	var doc struct {
		AccessToken string `json:"access_token"`
		APIKey      string `json:"api_key"`
		OpenAIKey   string `json:"OPENAI_API_KEY"`
		Tokens      struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return "", errors.Wrap(err, "parsing LLM credentials")
	}

	for _, token := range []string{doc.Tokens.AccessToken, doc.AccessToken, doc.APIKey, doc.OpenAIKey} {
		if token != "" {
			return token, nil
		}
	}
	return "", errors.Errorf("no access token found in %s", path)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
