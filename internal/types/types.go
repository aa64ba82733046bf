package types

import "time"

// Author is the posting account of a tweet
type Author struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Metrics are the engagement counters of a tweet
type Metrics struct {
	ReplyCount   int64 `json:"replyCount"`
	RetweetCount int64 `json:"retweetCount"`
	LikeCount    int64 `json:"likeCount"`
}

// Tweet is the normalized shape served to clients
type Tweet struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	CreatedAt string  `json:"createdAt"`
	Author    Author  `json:"author"`
	Metrics   Metrics `json:"metrics"`
	URL       string  `json:"url"`
}

// Feed sources reported in Meta.Source
const (
	SourceHome      = "home"
	SourceFollowing = "following"
	SourceList      = "list"
)

// Meta describes how a tweet payload was obtained
type Meta struct {
	FetchedAt string `json:"fetchedAt"`
	Count     int    `json:"count"`
	Source    string `json:"source"`
	Command   string `json:"command"`
}

// TweetPayload is the public body of GET /api/tweets
type TweetPayload struct {
	Tweets []Tweet `json:"tweets"`
	Meta   Meta    `json:"meta"`
}

// Topic is one bullet of a summary
type Topic struct {
	Topic   string `json:"topic"`
	Count   int    `json:"count"`
	Summary string `json:"summary"`
	Indices []int  `json:"indices,omitempty"`
}

// Summary is the structured digest recovered from LLM output
type Summary struct {
	Title          string  `json:"title"`
	OverallSummary string  `json:"overallSummary"`
	Topics         []Topic `json:"topics"`
}

// SummaryPayload is the public body of POST /api/tweet-summary
type SummaryPayload struct {
	Summary   Summary `json:"summary"`
	FetchedAt string  `json:"fetchedAt"`
	Count     int     `json:"count"`
}

// ChatPayload is the public body of POST /api/tweet-chat
type ChatPayload struct {
	Answer    string `json:"answer"`
	FetchedAt string `json:"fetchedAt"`
	Count     int    `json:"count"`
}

// PriceSnapshot is a market data reading for the configured symbols.
// A nil price means the upstream had no usable value for that symbol.
type PriceSnapshot struct {
	FetchedAt string              `json:"fetchedAt"`
	Prices    map[string]*float64 `json:"prices"`
	Changes   map[string]*float64 `json:"changes,omitempty"`
}

// TimestampLayout matches JavaScript's Date.toISOString, which the dashboard parses
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp formats t in UTC with millisecond precision
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
