package helpers

import (
	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"strings"
	"time"
)

func EscapeMarkdownV2(text string) string {
	charactersToEscape := []string{"\\", ".", "-", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "=", "|", "{", "}", "!"}

	for _, char := range charactersToEscape {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

func FormatPriceUS(price float64, escapeMarkdown bool) string {
	decimals := 6

	if price >= 1000 {
		decimals = 0
	} else if price > 1.2 {
		decimals = 2
	} else if price < 0.00001 {
		decimals = 8
	}

	p := message.NewPrinter(language.English)
	formatted := p.Sprintf("%.*f", decimals, price)

	if escapeMarkdown {
		return EscapeMarkdownV2(formatted)
	}
	return formatted
}

// FormatPercent renders a signed percentage with two decimals, e.g. "+1.25%"
func FormatPercent(change float64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%+.2f%%", change)
}

// CollapseWhitespace folds every run of whitespace into one space and trims the ends
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Truncate cuts s to at most max bytes without splitting a UTF-8 sequence
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// timeLayouts are the timestamp formats tweets arrive in
var timeLayouts = []string{time.RFC3339, time.RubyDate}

// Age renders how long ago a timestamp was, e.g. "3 minutes ago".
// Unparseable input is returned unchanged.
func Age(timestamp string) string {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, timestamp); err == nil {
			return humanize.Time(t)
		}
	}
	return timestamp
}
