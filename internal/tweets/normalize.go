package tweets

import (
	"fmt"
	"github.com/davecgh/go-spew/spew"
	"github.com/fightingentropy/bird-eye/internal/types"
	log "github.com/sirupsen/logrus"
)

// Normalize extracts the tweet records from bird's output. It accepts a bare
// array or an object carrying a "tweets" or "items" array; anything else
// yields no tweets.
func Normalize(raw interface{}) []types.Tweet {
	items := records(raw)
	tweets := make([]types.Tweet, 0, len(items))
	for _, item := range items {
		tweets = append(tweets, Map(item))
	}
	return tweets
}

func records(raw interface{}) []interface{} {
	switch v := raw.(type) {
	case []interface{}:
		return v
	case map[string]interface{}:
		for _, field := range []string{"tweets", "items"} {
			if list, ok := v[field].([]interface{}); ok {
				return list
			}
		}
	}

	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debugf("unrecognized bird payload shape:\n%s", spew.Sdump(raw))
	}
	return nil
}

// Map converts one raw record. Missing or mistyped fields become empty values.
func Map(item interface{}) types.Tweet {
	record, _ := item.(map[string]interface{})
	author, _ := record["author"].(map[string]interface{})

	tweet := types.Tweet{
		ID:        stringField(record, "id"),
		Text:      stringField(record, "text"),
		CreatedAt: stringField(record, "createdAt"),
		Author: types.Author{
			Username: stringField(author, "username"),
			Name:     stringField(author, "name"),
		},
		Metrics: types.Metrics{
			ReplyCount:   countField(record, "replyCount"),
			RetweetCount: countField(record, "retweetCount"),
			LikeCount:    countField(record, "likeCount"),
		},
	}
	tweet.URL = PostURL(tweet.Author.Username, tweet.ID)
	return tweet
}

// PostURL is the canonical link of a post, or "" when either part is missing
func PostURL(username, id string) string {
	if username == "" || id == "" {
		return ""
	}
	return fmt.Sprintf("https://x.com/%s/status/%s", username, id)
}

func stringField(record map[string]interface{}, key string) string {
	s, _ := record[key].(string)
	return s
}

// countField accepts JSON numbers only; numeric strings are not coerced
func countField(record map[string]interface{}, key string) int64 {
	n, ok := record[key].(float64)
	if !ok || n < 0 {
		return 0
	}
	return int64(n)
}
