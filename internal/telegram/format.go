package telegram

import (
	"fmt"
	"github.com/fightingentropy/bird-eye/internal/types"
	"github.com/fightingentropy/bird-eye/lib/helpers"
	"github.com/fightingentropy/bird-eye/lib/translation"
	"github.com/pkg/errors"
	"strings"
)

const (
	helpMessage = "Commands:\n" +
		"/tweets [bird command] - latest tweets, e.g. /tweets bird home -n 10\n" +
		"/summary [bird command] - topic digest of a timeline\n" +
		"/ask <question> - ask about the default timeline\n" +
		"/prices - current prices"
	askUsage = "Usage: /ask <question>"

	tweetsPerMessage = 10
	maxMessageLength = 4096
	tweetTextLimit   = 600
)

var escape = helpers.EscapeMarkdownV2

func formatTweets(payload types.TweetPayload, limit int) string {
	var sb strings.Builder
	sb.WriteString("*" + escape(payload.Meta.Command) + "*\n")
	sb.WriteString(escape(fmt.Sprintf(translation.Translate("%d tweets from %s, fetched %s"),
		payload.Meta.Count, payload.Meta.Source, helpers.Age(payload.Meta.FetchedAt))))
	sb.WriteString("\n")

	for i, tweet := range payload.Tweets {
		if i >= limit {
			break
		}
		sb.WriteString("\n*@" + escape(tweet.Author.Username) + "*")
		if tweet.Author.Name != "" {
			sb.WriteString(" " + escape(tweet.Author.Name))
		}
		if tweet.CreatedAt != "" {
			sb.WriteString(" · " + escape(helpers.Age(tweet.CreatedAt)))
		}
		sb.WriteString("\n" + escape(helpers.Truncate(tweet.Text, tweetTextLimit)) + "\n")
		if tweet.URL != "" {
			sb.WriteString("[" + escape(translation.Translate("open")) + "](" + tweet.URL + ")\n")
		}
	}
	return sb.String()
}

func formatSummary(result types.SummaryPayload) string {
	var sb strings.Builder
	if result.Summary.Title != "" {
		sb.WriteString("*" + escape(result.Summary.Title) + "*\n")
	}
	if result.Summary.OverallSummary != "" {
		sb.WriteString(escape(result.Summary.OverallSummary) + "\n")
	}
	for _, topic := range result.Summary.Topics {
		sb.WriteString("\n• *" + escape(topic.Topic) + "* " + escape(fmt.Sprintf("(%d)", topic.Count)))
		if topic.Summary != "" {
			sb.WriteString(": " + escape(topic.Summary))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n_" + escape(fmt.Sprintf(translation.Translate("Based on %d tweets"), result.Count)) + "_")
	return sb.String()
}

func formatPrices(snapshot types.PriceSnapshot, symbols []string) string {
	var sb strings.Builder
	for _, symbol := range symbols {
		sb.WriteString("*" + escape(symbol) + "* ")

		price := snapshot.Prices[symbol]
		if price == nil {
			sb.WriteString(escape(translation.Translate("n/a")) + "\n")
			continue
		}
		sb.WriteString("`$" + helpers.FormatPriceUS(*price, false) + "`")
		if change := snapshot.Changes[symbol]; change != nil {
			sb.WriteString(" " + escape(helpers.FormatPercent(*change)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatError(err error) string {
	var e *types.Error
	if errors.As(err, &e) {
		return escape(translation.Translate(e.Format, e.Args...))
	}
	return escape(translation.Translate("Something went wrong, please try again later."))
}

// clip keeps whole lines so an escape sequence is never split
func clip(text string) string {
	if len(text) <= maxMessageLength {
		return text
	}
	const ellipsis = "\n\\.\\.\\."

	cut := strings.LastIndex(text[:maxMessageLength-len(ellipsis)], "\n")
	if cut <= 0 {
		return escape(translation.Translate("The answer is too long to show here."))
	}
	return text[:cut] + ellipsis
}
