package normalizer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lineview/odds-aggregator/internal/models"
)

// subjectGameTotal is the selection subject for game totals, which belong to
// the matchup rather than to either team.
const subjectGameTotal = "game_total"

// parsedEvent is the outcome of splitting a raw event label into the two
// competitor names, before identity resolution.
type parsedEvent struct {
	home string
	away string
}

// splitEventLabel splits a source event label into home and away names.
// "A @ B" and "A at B" mean A is the road team; "B vs A" lists the home team
// first.
func splitEventLabel(label string) (parsedEvent, error) {
	for _, sep := range []string{" @ ", " at "} {
		if first, second, ok := cutFold(label, sep); ok {
			return parsedEvent{away: first, home: second}, nil
		}
	}
	for _, sep := range []string{" vs. ", " vs ", " v "} {
		if first, second, ok := cutFold(label, sep); ok {
			return parsedEvent{home: first, away: second}, nil
		}
	}
	return parsedEvent{}, fmt.Errorf("%w: event label %q has no recognized separator", models.ErrUnresolved, label)
}

// cutFold is strings.Cut with a case-insensitive separator.
func cutFold(s, sep string) (before, after string, found bool) {
	idx := strings.Index(strings.ToLower(s), strings.ToLower(sep))
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+len(sep):]), true
}

// splitSideLabel splits a selection label of the form "<subject> Over ..." or
// "<subject> Under ...", returning the subject part, the side, and any
// trailing text (usually the line).
func splitSideLabel(label string) (subject string, side models.Side, rest string, ok bool) {
	lower := strings.ToLower(label)
	for _, side = range []models.Side{models.SideOver, models.SideUnder} {
		word := string(side)
		if idx := strings.Index(lower, " "+word); idx >= 0 {
			subject = strings.TrimSpace(label[:idx])
			rest = strings.TrimSpace(label[idx+len(word)+1:])
			return subject, side, rest, true
		}
		if strings.HasPrefix(lower, word) {
			rest = strings.TrimSpace(label[len(word):])
			return "", side, rest, true
		}
	}
	return "", models.SideNone, "", false
}

// trailingNumber strips a trailing signed number from a label, returning the
// remaining label and the parsed value. Used for spread labels like
// "Boston Celtics -3.5".
func trailingNumber(label string) (string, *decimal.Decimal) {
	fields := strings.Fields(label)
	if len(fields) < 2 {
		return label, nil
	}
	last := fields[len(fields)-1]
	d, err := decimal.NewFromString(strings.TrimPrefix(last, "+"))
	if err != nil {
		return label, nil
	}
	return strings.Join(fields[:len(fields)-1], " "), &d
}

// leadingNumber parses the first numeric token of a fragment, for labels like
// "Over 220.5" or "Under 24.5 Points".
func leadingNumber(fragment string) *decimal.Decimal {
	fields := strings.Fields(fragment)
	if len(fields) == 0 {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(fields[0], "+"))
	if err != nil {
		return nil
	}
	return &d
}
