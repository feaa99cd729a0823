package forms

import (
	"context"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bankbot/internal/logging"
	"bankbot/internal/types"
)

// Choice validates a slot against an enumerated set of candidates, such as
// the user's credit cards or known recipients.
type Choice struct {
	Slot Slot

	// Candidates returns the accepted values for the current conversation.
	Candidates func(ctx context.Context, tr *types.Tracker) ([]string, error)

	// Normalize maps both input and candidates to comparable form.
	// Defaults to trimmed lower case.
	Normalize func(string) string

	// Display renders the matched candidate for the slot. Defaults to
	// title case.
	Display func(string) string

	// FirstWord also matches the input against each candidate's first word,
	// so "evan" resolves to "evan oslo".
	FirstWord bool

	// Fuzzy tolerates small typos, bounded by candidate length.
	Fuzzy bool

	// Reject is the response template sent on rejection. The raw input is
	// passed as a keyword named after the slot.
	Reject string
}

// TitleCase title-cases s the way slot values are shown to the user. A
// Caser keeps state between calls, so each call gets its own.
func TitleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func normalizeChoice(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Validator returns the slot validator for c.
func (c Choice) Validator() Validator {
	return func(ctx context.Context, value any, tr *types.Tracker) (Result, error) {
		raw := choiceInput(value)
		candidates, err := c.Candidates(ctx, tr)
		if err != nil {
			return Result{}, fmt.Errorf("failed to list %s candidates: %w", c.Slot, err)
		}
		if match, ok := c.Match(raw, candidates); ok {
			return Accept(c.Slot, c.display(match)), nil
		}

		logging.FormsDebug("%s: %q is not one of %v", c.Slot, raw, candidates)
		r := Reject(c.Slot)
		if c.Reject != "" {
			r = r.Say(c.Reject, map[string]any{string(c.Slot): raw})
		}
		return r, nil
	}
}

// Match resolves raw against candidates. It returns the matching candidate
// as given.
func (c Choice) Match(raw string, candidates []string) (string, bool) {
	norm := c.Normalize
	if norm == nil {
		norm = normalizeChoice
	}
	in := norm(raw)
	if in == "" {
		return "", false
	}

	for _, cand := range candidates {
		if norm(cand) == in {
			return cand, true
		}
	}

	if c.FirstWord {
		for _, cand := range candidates {
			if fields := strings.Fields(norm(cand)); len(fields) > 0 && fields[0] == in {
				return cand, true
			}
		}
	}

	if c.Fuzzy && len(in) >= 3 {
		best, bestDist, ambiguous := "", -1, false
		for _, cand := range candidates {
			n := norm(cand)
			dist := levenshtein.ComputeDistance(in, n)
			if dist > levenshteinLimit(len(n)) {
				continue
			}
			switch {
			case bestDist < 0 || dist < bestDist:
				best, bestDist, ambiguous = cand, dist, false
			case dist == bestDist:
				ambiguous = true
			}
		}
		if bestDist >= 0 && !ambiguous {
			logging.FormsDebug("%s: fuzzy matched %q to %q (distance %d)", c.Slot, raw, best, bestDist)
			return best, true
		}
	}
	return "", false
}

func (c Choice) display(s string) string {
	if c.Display != nil {
		return c.Display(s)
	}
	return TitleCase(s)
}

func levenshteinLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// choiceInput reduces a slot value to text. Several extractors may tag the
// same span, in which case the first value wins.
func choiceInput(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			return choiceInput(v[0])
		}
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// Static returns a candidate source with a fixed list.
func Static(values ...string) func(context.Context, *types.Tracker) ([]string, error) {
	return func(context.Context, *types.Tracker) ([]string, error) {
		return values, nil
	}
}
