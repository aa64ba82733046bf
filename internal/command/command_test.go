package command

import (
	"github.com/fightingentropy/bird-eye/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strconv"
	"testing"
)

func newTestParser() *Parser {
	return NewParser("1933193197817135501", 50)
}

func TestParseDefault(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n"} {
		got, err := newTestParser().Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"list-timeline", "1933193197817135501", "-n", "50", "--json"}, got.Args)
		assert.Equal(t, "bird list-timeline 1933193197817135501 -n 50 --json", got.Display)
		assert.Equal(t, 50, got.Count)
		assert.Equal(t, types.SourceList, got.Source)
	}
}

func TestParseListTimeline(t *testing.T) {
	got, err := newTestParser().Parse("bird list-timeline 123 -n 5 --json")
	require.NoError(t, err)
	assert.Equal(t, []string{"list-timeline", "123", "-n", "5", "--json"}, got.Args)
	assert.Equal(t, "bird list-timeline 123 -n 5 --json", got.Display)
	assert.Equal(t, 5, got.Count)
	assert.Equal(t, types.SourceList, got.Source)
}

func TestParseListURL(t *testing.T) {
	got, err := newTestParser().Parse("bird list-timeline https://x.com/i/lists/987654 --count 7")
	require.NoError(t, err)
	assert.Equal(t, "bird list-timeline 987654 -n 7 --json", got.Display)
}

func TestParseHome(t *testing.T) {
	got, err := newTestParser().Parse("bird home")
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "-n", "50", "--json"}, got.Args)
	assert.Equal(t, types.SourceHome, got.Source)

	got, err = newTestParser().Parse("  bird   home --following -n 12 ")
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "--following", "-n", "12", "--json"}, got.Args)
	assert.Equal(t, "bird home --following -n 12 --json", got.Display)
	assert.Equal(t, types.SourceFollowing, got.Source)
}

func TestParseCanonicalizesFlagOrder(t *testing.T) {
	groups := [][]string{
		{
			"bird home --following -n 20 --json",
			"bird home --json -n 20 --following",
			"bird home -n 20 --following",
			"bird home --count 20 --json --following",
		},
		{
			"bird list-timeline 42 -n 9 --json",
			"bird list-timeline 42 --json -n 9",
			"bird list-timeline https://x.com/i/lists/42 --count 9",
		},
	}

	for _, group := range groups {
		first, err := newTestParser().Parse(group[0])
		require.NoError(t, err)
		for _, raw := range group[1:] {
			got, err := newTestParser().Parse(raw)
			require.NoError(t, err, raw)
			assert.Equal(t, first.Display, got.Display, raw)
			assert.Equal(t, first.Args, got.Args, raw)
		}
	}
}

func TestNewParserReplacesInvalidDefaultCount(t *testing.T) {
	for _, n := range []int{0, -5, CountMax + 1} {
		assert.Equal(t, CountDefault, NewParser("1", n).DefaultCount, "configured %d", n)
	}
	assert.Equal(t, CountMax, NewParser("1", CountMax).DefaultCount)
	assert.Equal(t, 1, NewParser("1", 1).DefaultCount)
}

func TestParseCountBounds(t *testing.T) {
	for _, n := range []int{1, 100, CountMax} {
		got, err := newTestParser().Parse("bird home -n " + strconv.Itoa(n))
		require.NoError(t, err)
		assert.Equal(t, n, got.Count)
	}

	for _, value := range []string{"0", "-1", "201", "1000", "abc", "2.5", ""} {
		_, err := newTestParser().Parse("bird home -n " + value)
		require.Error(t, err, value)
		assert.Equal(t, types.KindInvalidCount, types.KindOf(err), value)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		raw  string
		kind types.Kind
		msg  string
	}{
		{"curl http://evil", types.KindInvalidCommand, `Command must start with "bird ".`},
		{"birdhome", types.KindInvalidCommand, `Command must start with "bird ".`},
		{"bird", types.KindInvalidCommand, "Command is missing."},
		{"bird tweet hello", types.KindUnsupportedCommand, `Only "bird home" and "bird list-timeline" are allowed here.`},
		{"bird list-timeline", types.KindInvalidCommand, "list-timeline requires a list ID or URL."},
		{"bird list-timeline ; rm -rf /", types.KindInvalidCommand, "list-timeline requires a numeric list ID or a list URL, got ;."},
		{"bird list-timeline 42 --following", types.KindInvalidFlag, `The --following flag is only valid for "bird home".`},
		{"bird home --cookie-source chrome", types.KindUnsupportedFlag, "Unsupported flag: --cookie-source"},
		{"bird home $(whoami)", types.KindUnsupportedFlag, "Unsupported flag: $(whoami)"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := newTestParser().Parse(tt.raw)
			require.Error(t, err)
			assert.Equal(t, tt.kind, types.KindOf(err))
			assert.Equal(t, tt.msg, err.Error())
			assert.True(t, types.IsClientError(err))
		})
	}
}

func TestWithCount(t *testing.T) {
	p := newTestParser()

	list, _ := p.Parse("bird list-timeline 42 -n 50")
	assert.Equal(t, "bird list-timeline 42 -n 20 --json", WithCount(list, 20).Display)

	following, _ := p.Parse("bird home --following")
	assert.Equal(t, "bird home --following -n 20 --json", WithCount(following, 20).Display)

	home, _ := p.Parse("bird home")
	got := WithCount(home, 20)
	assert.Equal(t, []string{"home", "-n", "20", "--json"}, got.Args)
	assert.Equal(t, 20, got.Count)
}
