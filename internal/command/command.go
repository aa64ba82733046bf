// Package command validates the free-form "bird ..." command a user types in the
// dashboard and turns it into a bounded argument vector for the bird CLI.
//
// Arguments are always handed to the process as discrete tokens and never
// through a shell.
package command

import (
	"github.com/fightingentropy/bird-eye/internal/types"
	log "github.com/sirupsen/logrus"
	"regexp"
	"strconv"
	"strings"
)

const (
	// Prefix every accepted command starts with
	Prefix = "bird"

	// CountMax is the largest -n a user may request
	CountMax = 200

	// CountDefault replaces a configured default count outside 1..CountMax
	CountDefault = 50

	subHome         = "home"
	subListTimeline = "list-timeline"
)

var (
	listURLPattern = regexp.MustCompile(`lists/(\d+)`)
	listIDPattern  = regexp.MustCompile(`^\d+$`)
)

// Parsed is a validated command. Display is rebuilt from Args, so two
// commands that only differ in flag order share the same Display.
type Parsed struct {
	Args    []string `json:"args"`
	Display string   `json:"display"`
	Count   int      `json:"requestedCount"`
	Source  string   `json:"source"`
}

// Parser holds the defaults used for an empty command
type Parser struct {
	DefaultList  string
	DefaultCount int
}

func NewParser(defaultList string, defaultCount int) *Parser {
	if defaultCount < 1 || defaultCount > CountMax {
		log.WithFields(log.Fields{"configured": defaultCount, "used": CountDefault}).
			Warnf("default count must be between 1 and %d", CountMax)
		defaultCount = CountDefault
	}
	return &Parser{DefaultList: defaultList, DefaultCount: defaultCount}
}

// Default is the command used when the user supplied none
func (p *Parser) Default() Parsed {
	return build(subListTimeline, p.DefaultList, false, p.DefaultCount)
}

// Parse validates raw and returns its canonical form
func (p *Parser) Parse(raw string) (Parsed, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return p.Default(), nil
	}

	parts := strings.Fields(trimmed)
	if parts[0] != Prefix {
		return Parsed{}, types.NewError(types.KindInvalidCommand, `Command must start with "bird ".`)
	}
	parts = parts[1:]
	if len(parts) == 0 {
		return Parsed{}, types.NewError(types.KindInvalidCommand, "Command is missing.")
	}

	sub := parts[0]
	if sub != subHome && sub != subListTimeline {
		return Parsed{}, types.NewError(types.KindUnsupportedCommand, `Only "bird home" and "bird list-timeline" are allowed here.`)
	}

	var listID string
	rest := parts[1:]
	if sub == subListTimeline {
		if len(rest) == 0 {
			return Parsed{}, types.NewError(types.KindInvalidCommand, "list-timeline requires a list ID or URL.")
		}
		id, ok := listTarget(rest[0])
		if !ok {
			return Parsed{}, types.NewError(types.KindInvalidCommand, "list-timeline requires a numeric list ID or a list URL, got %s.", rest[0])
		}
		listID = id
		rest = rest[1:]
	}

	count := p.DefaultCount
	following := false

	for i := 0; i < len(rest); i++ {
		switch part := rest[i]; part {
		case "--following":
			if sub != subHome {
				return Parsed{}, types.NewError(types.KindInvalidFlag, `The --following flag is only valid for "bird home".`)
			}
			following = true
		case "-n", "--count":
			value := ""
			if i+1 < len(rest) {
				value = rest[i+1]
			}
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 || n > CountMax {
				return Parsed{}, types.NewError(types.KindInvalidCount, "Count must be an integer between 1 and %d.", CountMax)
			}
			count = n
			i++
		case "--json":
			// always re-added
		default:
			return Parsed{}, types.NewError(types.KindUnsupportedFlag, "Unsupported flag: %s", part)
		}
	}

	return build(sub, listID, following, count), nil
}

// WithCount rebuilds c with a different count, keeping everything else
func WithCount(c Parsed, count int) Parsed {
	switch c.Source {
	case types.SourceList:
		return build(subListTimeline, c.Args[1], false, count)
	case types.SourceFollowing:
		return build(subHome, "", true, count)
	default:
		return build(subHome, "", false, count)
	}
}

func listTarget(arg string) (string, bool) {
	if m := listURLPattern.FindStringSubmatch(arg); m != nil {
		return m[1], true
	}
	if listIDPattern.MatchString(arg) {
		return arg, true
	}
	return "", false
}

func build(sub, listID string, following bool, count int) Parsed {
	args := []string{sub}
	source := types.SourceHome

	switch {
	case sub == subListTimeline:
		args = append(args, listID)
		source = types.SourceList
	case following:
		args = append(args, "--following")
		source = types.SourceFollowing
	}
	args = append(args, "-n", strconv.Itoa(count), "--json")

	return Parsed{
		Args:    args,
		Display: Prefix + " " + strings.Join(args, " "),
		Count:   count,
		Source:  source,
	}
}
