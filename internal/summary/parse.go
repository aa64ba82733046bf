package summary

import (
	"encoding/json"
	"github.com/fightingentropy/bird-eye/internal/types"
	"github.com/fightingentropy/bird-eye/lib/helpers"
	"regexp"
	"strconv"
	"strings"
)

var (
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	indexToken    = regexp.MustCompile(`(?i)\|?\s*\bidx\s*:\s*([0-9][0-9,\s]*)`)
	leadingNumber = regexp.MustCompile(`\d+`)
)

// strategy recovers a summary from raw LLM text, reporting whether it found one
type strategy struct {
	name  string
	parse func(text string) (types.Summary, bool)
}

// strategies are tried in order, the first usable result wins
var strategies = []strategy{
	{name: "json", parse: ParseJSON},
	{name: "text", parse: ParseText},
}

// Recover runs the parsing strategies over text. Topic indices are kept only
// when they point into the first tweets entries of the prompted list.
func Recover(text string, tweets int) (types.Summary, string, bool) {
	for _, s := range strategies {
		if summary, ok := s.parse(text); ok {
			return withinWindow(summary, tweets), s.name, true
		}
	}
	return types.Summary{}, "", false
}

// withinWindow drops topic indices outside [0, n)
func withinWindow(s types.Summary, n int) types.Summary {
	for i, topic := range s.Topics {
		var kept []int
		for _, idx := range topic.Indices {
			if idx >= 0 && idx < n {
				kept = append(kept, idx)
			}
		}
		s.Topics[i].Indices = kept
	}
	return s
}

func usable(s types.Summary) bool {
	return len(s.Topics) > 0 || s.OverallSummary != ""
}

type jsonTopic struct {
	Topic   string      `json:"topic"`
	Count   interface{} `json:"count"`
	Summary string      `json:"summary"`
	Indices []int       `json:"indices"`
}

type jsonSummary struct {
	Title          string      `json:"title"`
	OverallSummary string      `json:"overallSummary"`
	Overall        string      `json:"overall"`
	Topics         []jsonTopic `json:"topics"`
}

// ParseJSON accepts the whole text as JSON, or the span between its first
// '{' and last '}', in both cases retrying once without trailing commas.
func ParseJSON(text string) (types.Summary, bool) {
	candidates := []string{strings.TrimSpace(text)}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		candidates = append(candidates, text[start:end+1])
	}

	for _, candidate := range candidates {
		for _, attempt := range []string{candidate, trailingComma.ReplaceAllString(candidate, "$1")} {
			var doc jsonSummary
			if err := json.Unmarshal([]byte(attempt), &doc); err != nil {
				continue
			}
			if summary := doc.summary(); usable(summary) {
				return summary, true
			}
		}
	}
	return types.Summary{}, false
}

func (d jsonSummary) summary() types.Summary {
	s := types.Summary{
		Title:          strings.TrimSpace(d.Title),
		OverallSummary: strings.TrimSpace(d.OverallSummary),
		Topics:         []types.Topic{},
	}
	if s.OverallSummary == "" {
		s.OverallSummary = strings.TrimSpace(d.Overall)
	}

	for _, t := range d.Topics {
		var count int
		switch c := t.Count.(type) {
		case float64:
			count = int(c)
		case string:
			count, _ = strconv.Atoi(leadingNumber.FindString(c))
		}
		topic := types.Topic{
			Topic:   strings.TrimSpace(t.Topic),
			Count:   count,
			Summary: strings.TrimSpace(t.Summary),
		}
		// indices are the 1-based tweet numbers of the prompt, as in the text schema
		for _, idx := range t.Indices {
			if idx >= 1 {
				topic.Indices = append(topic.Indices, idx-1)
			}
		}
		if topic.Topic != "" || topic.Summary != "" {
			s.Topics = append(s.Topics, topic)
		}
	}
	return s
}

// ParseText reads the plain text schema:
//
//	Title: <title>
//	Overall: <overall summary>
//	- <topic> | <count> | <summary> | idx: 1,2,3
func ParseText(text string) (types.Summary, bool) {
	s := types.Summary{Topics: []types.Topic{}}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case hasPrefixFold(line, "Title:"):
			s.Title = strings.TrimSpace(line[len("Title:"):])
		case hasPrefixFold(line, "Overall:"):
			s.OverallSummary = strings.TrimSpace(line[len("Overall:"):])
		case strings.HasPrefix(line, "- "):
			if topic, ok := parseTopicLine(line[2:]); ok {
				s.Topics = append(s.Topics, topic)
			}
		}
	}

	if !usable(s) {
		return types.Summary{}, false
	}
	return s, true
}

func parseTopicLine(line string) (types.Topic, bool) {
	fields := strings.Split(line, "|")
	if len(fields) < 2 {
		return types.Topic{}, false
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	topic := types.Topic{Topic: fields[0]}
	topic.Count, _ = strconv.Atoi(leadingNumber.FindString(fields[1]))
	if len(fields) > 2 {
		topic.Summary, topic.Indices = extractIndices(strings.Join(fields[2:], " | "))
	}
	if topic.Topic == "" {
		return types.Topic{}, false
	}
	return topic, true
}

// extractIndices strips an "idx: 1,2,3" token from summary and returns the
// tweet numbers it named as 0-based positions
func extractIndices(summary string) (string, []int) {
	match := indexToken.FindStringSubmatchIndex(summary)
	if match == nil {
		return summary, nil
	}

	var indices []int
	for _, field := range strings.FieldsFunc(summary[match[2]:match[3]], func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	}) {
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 {
			continue
		}
		indices = append(indices, n-1)
	}

	stripped := summary[:match[0]] + " " + summary[match[1]:]
	stripped = strings.TrimRight(strings.TrimSpace(stripped), "|")
	return helpers.CollapseWhitespace(stripped), indices
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
