// Package parsing turns entity-recogniser annotations into normalized slot
// values: time intervals and points with a display string chosen by grain,
// and money amounts with a currency.
package parsing

import (
	"fmt"
	"strings"
	"time"
)

// Grain is the precision of a recognised time value.
type Grain string

const (
	GrainSecond  Grain = "second"
	GrainMinute  Grain = "minute"
	GrainHour    Grain = "hour"
	GrainDay     Grain = "day"
	GrainWeek    Grain = "week"
	GrainMonth   Grain = "month"
	GrainQuarter Grain = "quarter"
	GrainYear    Grain = "year"
)

var grains = map[Grain]struct{}{
	GrainSecond: {}, GrainMinute: {}, GrainHour: {}, GrainDay: {},
	GrainWeek: {}, GrainMonth: {}, GrainQuarter: {}, GrainYear: {},
}

// ParseGrain validates a grain name.
func ParseGrain(s string) (Grain, error) {
	g := Grain(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := grains[g]; !ok {
		return "", fmt.Errorf("unknown grain %q", s)
	}
	return g, nil
}

// AddGrain moves t by n grain units. Sub-day grains are fixed durations;
// day and week follow the calendar. Month, quarter and year keep the day of
// month where possible and clamp to the last day of the target month, so
// Jan 31 plus one month is the last day of February.
func AddGrain(t time.Time, g Grain, n int) time.Time {
	switch g {
	case GrainSecond:
		return t.Add(time.Duration(n) * time.Second)
	case GrainMinute:
		return t.Add(time.Duration(n) * time.Minute)
	case GrainHour:
		return t.Add(time.Duration(n) * time.Hour)
	case GrainDay:
		return t.AddDate(0, 0, n)
	case GrainWeek:
		return t.AddDate(0, 0, 7*n)
	case GrainMonth:
		return addMonths(t, n)
	case GrainQuarter:
		return addMonths(t, 3*n)
	case GrainYear:
		return addMonths(t, 12*n)
	default:
		return t
	}
}

func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

var grainLayouts = map[Grain]string{
	GrainSecond: "03:04:05PM, Monday Jan 02, 2006",
	GrainDay:    "Monday Jan 02, 2006",
	GrainWeek:   "Monday Jan 02, 2006",
	GrainMonth:  "Jan 2006",
	GrainYear:   "2006",
}

const defaultLayout = "03:04PM, Monday Jan 02, 2006"

// FormatTimeByGrain renders t for display. Calendar grains drop the time of
// day; finer grains keep it. The instant is rendered in its own offset.
func FormatTimeByGrain(t time.Time, g Grain) string {
	layout, ok := grainLayouts[g]
	if !ok {
		layout = defaultLayout
	}
	return t.Format(layout)
}
