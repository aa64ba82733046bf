package summary

import (
	"github.com/fightingentropy/bird-eye/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

const schemaText = `Title: Crypto twitter wakes up
Overall: ETF flows and a new L2 launch dominate the timeline.
- ETF flows | 4 | Record inflows into spot bitcoin funds for a third day | idx: 1, 3, 4, 7
- L2 launch | 3 | A new rollup goes live with a points program
- Macro | 2 | Traders position ahead of the CPI print | extra detail | idx: 2,5
`

func TestParseTextSchema(t *testing.T) {
	summary, ok := ParseText(schemaText)
	require.True(t, ok)

	assert.Equal(t, "Crypto twitter wakes up", summary.Title)
	assert.Equal(t, "ETF flows and a new L2 launch dominate the timeline.", summary.OverallSummary)
	require.Len(t, summary.Topics, 3)

	assert.Equal(t, types.Topic{
		Topic:   "ETF flows",
		Count:   4,
		Summary: "Record inflows into spot bitcoin funds for a third day",
		Indices: []int{0, 2, 3, 6},
	}, summary.Topics[0])
	assert.Equal(t, 3, summary.Topics[1].Count)
	assert.Nil(t, summary.Topics[1].Indices)
	assert.Equal(t, "Traders position ahead of the CPI print | extra detail", summary.Topics[2].Summary)
	assert.Equal(t, []int{1, 4}, summary.Topics[2].Indices)
}

func TestParseTextTolerance(t *testing.T) {
	summary, ok := ParseText("  title: lower case\nsome chatter\n- Solo | n/a\n- no pipes here\n-  | 2 | empty topic\n")
	require.True(t, ok)

	assert.Equal(t, "lower case", summary.Title)
	require.Len(t, summary.Topics, 1)
	assert.Equal(t, types.Topic{Topic: "Solo"}, summary.Topics[0])
}

func TestParseTextUnusable(t *testing.T) {
	_, ok := ParseText("Title: only a title\nand prose")
	assert.False(t, ok)

	_, ok = ParseText("")
	assert.False(t, ok)
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"plain", `{"title":"T","overallSummary":"O","topics":[{"topic":"a","count":2,"summary":"s","indices":[1,2]}]}`},
		{"fenced", "```json\n{\"title\":\"T\",\"overallSummary\":\"O\",\"topics\":[{\"topic\":\"a\",\"count\":2,\"summary\":\"s\",\"indices\":[1,2]}]}\n```"},
		{"trailing commas", `Here you go: {"title":"T","overall":"O","topics":[{"topic":"a","count":"2","summary":"s","indices":[1,2],},],}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, ok := ParseJSON(tt.text)
			require.True(t, ok)
			assert.Equal(t, types.Summary{
				Title:          "T",
				OverallSummary: "O",
				Topics:         []types.Topic{{Topic: "a", Count: 2, Summary: "s", Indices: []int{0, 1}}},
			}, summary)
		})
	}
}

func TestParseJSONRejectsText(t *testing.T) {
	_, ok := ParseJSON(schemaText)
	assert.False(t, ok)

	_, ok = ParseJSON(`{"title":"only a title"}`)
	assert.False(t, ok)
}

func TestRecoverOrder(t *testing.T) {
	_, name, ok := Recover(`{"overallSummary":"from json"}`, 10)
	require.True(t, ok)
	assert.Equal(t, "json", name)

	_, name, ok = Recover(schemaText, 10)
	require.True(t, ok)
	assert.Equal(t, "text", name)

	_, _, ok = Recover("I cannot help with that.", 10)
	assert.False(t, ok)
}

func TestExtractIndices(t *testing.T) {
	summary, indices := extractIndices("before idx: 3,0, 2 after")
	assert.Equal(t, "before after", summary)
	assert.Equal(t, []int{2, 1}, indices)

	summary, indices = extractIndices("no token")
	assert.Equal(t, "no token", summary)
	assert.Nil(t, indices)
}

func TestRecoverBoundsIndicesToWindow(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"text", "Overall: o\n- X | 1 | s | idx: 2, 99, 0\n"},
		{"json", `{"overallSummary":"o","topics":[{"topic":"X","count":1,"summary":"s","indices":[2,99,0]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, name, ok := Recover(tt.text, 2)
			require.True(t, ok)
			assert.Equal(t, tt.name, name)
			require.Len(t, summary.Topics, 1)
			assert.Equal(t, []int{1}, summary.Topics[0].Indices)
		})
	}
}
