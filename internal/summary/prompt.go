package summary

import (
	"fmt"
	"github.com/fightingentropy/bird-eye/internal/types"
	"github.com/fightingentropy/bird-eye/lib/helpers"
	"strings"
)

const summaryInstructions = `You are summarizing a timeline of tweets for a busy reader.
Group the tweets into 4 to 7 topics and answer in exactly this plain text format, with no other text:

Title: <short headline for the whole timeline>
Overall: <two or three sentences on what the timeline is about>
- <topic> | <number of tweets> | <summary of at most 18 words> | idx: <comma separated tweet numbers>

Use one "- " line per topic. Tweet numbers refer to the numbered list below.

Tweets (most recent first):
`

const repairInstructions = `The text below was supposed to follow this exact plain text format:

Title: <short headline>
Overall: <two or three sentences>
- <topic> | <number of tweets> | <summary of at most 18 words> | idx: <comma separated tweet numbers>

Rewrite it into that format with 4 to 7 topic lines. Keep its content, output nothing else.

Text:
`

const chatInstructions = `Answer the question using only the tweets below. Be concise and cite tweet numbers like [3] when they support the answer.
If the tweets do not contain the answer, say so.

Question: %s

Tweets (most recent first):
`

// TweetLines renders at most max tweets as "<n>. (@handle) <text>" lines.
// The tweets are expected most recent first, the order bird returns them in,
// so the 1-based numbers map straight back to positions in the payload.
func TweetLines(tweets []types.Tweet, max int) string {
	if max > 0 && len(tweets) > max {
		tweets = tweets[:max]
	}

	var sb strings.Builder
	for i, tweet := range tweets {
		handle := tweet.Author.Username
		if handle == "" {
			handle = "unknown"
		}
		fmt.Fprintf(&sb, "%d. (@%s) %s\n", i+1, handle, helpers.CollapseWhitespace(tweet.Text))
	}
	return sb.String()
}

func summaryPrompt(tweets []types.Tweet, max int) string {
	return summaryInstructions + TweetLines(tweets, max)
}

func repairPrompt(previous string) string {
	return repairInstructions + strings.TrimSpace(previous) + "\n"
}

func chatPrompt(question string, tweets []types.Tweet, max int) string {
	return fmt.Sprintf(chatInstructions, strings.TrimSpace(question)) + TweetLines(tweets, max)
}
