package parsing

import (
	"fmt"
	"strings"
	"time"

	"bankbot/internal/logging"
	"bankbot/internal/types"
)

// Entity kinds produced by the entity recogniser.
const (
	EntityTime   = "time"
	EntityMoney  = "amount-of-money"
	EntityNumber = "number"
)

// Annotation types of a time entity.
const (
	TypeValue    = "value"
	TypeInterval = "interval"
)

// Slot names filled from time annotations.
const (
	SlotTime               = "time"
	SlotTimeFormatted      = "time_formatted"
	SlotStartTime          = "start_time"
	SlotEndTime            = "end_time"
	SlotStartTimeFormatted = "start_time_formatted"
	SlotEndTimeFormatted   = "end_time_formatted"
	SlotGrain              = "grain"
)

// Interval is a closed-open span of time recognised in a message.
type Interval struct {
	Start time.Time
	End   time.Time
	Grain Grain
}

// Slots returns the slot values describing the interval, in a fixed order.
func (i Interval) Slots() []types.SlotValue {
	return []types.SlotValue{
		{Name: SlotStartTime, Value: i.Start.Format(time.RFC3339)},
		{Name: SlotEndTime, Value: i.End.Format(time.RFC3339)},
		{Name: SlotStartTimeFormatted, Value: FormatTimeByGrain(i.Start, i.Grain)},
		{Name: SlotEndTimeFormatted, Value: FormatTimeByGrain(i.End, i.Grain)},
		{Name: SlotGrain, Value: string(i.Grain)},
	}
}

// Point is a single recognised instant.
type Point struct {
	Time  time.Time
	Grain Grain
}

// Slots returns the slot values describing the point.
func (p Point) Slots() []types.SlotValue {
	return []types.SlotValue{
		{Name: SlotTime, Value: p.Time.Format(time.RFC3339)},
		{Name: SlotTimeFormatted, Value: FormatTimeByGrain(p.Time, p.Grain)},
		{Name: SlotGrain, Value: string(p.Grain)},
	}
}

// ParseTimeAsInterval reads a time entity as an interval.
//
// A point value with grain G becomes [value, value+G). An interval with both
// bounds is used as is. An interval with only a start is closed one grain
// later; one with only an end is opened one grain earlier. The grain comes
// from whichever bound carries it, preferring the end.
func ParseTimeAsInterval(e types.Entity) (Interval, bool) {
	info := e.Info()
	switch info.Type {
	case TypeValue:
		p, ok := parsePoint(info)
		if !ok {
			return Interval{}, false
		}
		return Interval{Start: p.Time, End: AddGrain(p.Time, p.Grain, 1), Grain: p.Grain}, true
	case TypeInterval:
		return parseInterval(info)
	default:
		logging.ParsingDebug("time entity without usable type: %q", info.Type)
		return Interval{}, false
	}
}

// ParseTimePoint reads a time entity that names a single instant.
func ParseTimePoint(e types.Entity) (Point, bool) {
	info := e.Info()
	if info.Type != TypeValue {
		logging.ParsingDebug("expected a point in time, got %q", info.Type)
		return Point{}, false
	}
	return parsePoint(info)
}

func parsePoint(info types.Annotation) (Point, bool) {
	value, _ := info.Value.(string)
	if value == "" {
		logging.ParsingDebug("time value missing")
		return Point{}, false
	}
	g, err := ParseGrain(info.Grain)
	if err != nil {
		logging.ParsingDebug("time value %q: %v", value, err)
		return Point{}, false
	}
	t, err := ParseInstant(value)
	if err != nil {
		logging.ParsingDebug("time value %q: %v", value, err)
		return Point{}, false
	}
	return Point{Time: t, Grain: g}, true
}

func parseInterval(info types.Annotation) (Interval, bool) {
	from, hasFrom := boundValue(info.From)
	to, hasTo := boundValue(info.To)
	if !hasFrom && !hasTo {
		logging.ParsingDebug("interval without bounds")
		return Interval{}, false
	}

	rawGrain := ""
	if info.To != nil && info.To.Grain != "" {
		rawGrain = info.To.Grain
	} else if info.From != nil {
		rawGrain = info.From.Grain
	}
	g, err := ParseGrain(rawGrain)
	if err != nil {
		logging.ParsingDebug("interval: %v", err)
		return Interval{}, false
	}

	var start, end time.Time
	if hasFrom {
		if start, err = ParseInstant(from); err != nil {
			logging.ParsingDebug("interval start %q: %v", from, err)
			return Interval{}, false
		}
	}
	if hasTo {
		if end, err = ParseInstant(to); err != nil {
			logging.ParsingDebug("interval end %q: %v", to, err)
			return Interval{}, false
		}
	}

	switch {
	case !hasTo:
		end = AddGrain(start, g, 1)
	case !hasFrom:
		start = AddGrain(end, g, -1)
	}
	return Interval{Start: start, End: end, Grain: g}, true
}

func boundValue(b *types.Bound) (string, bool) {
	if b == nil || strings.TrimSpace(b.Value) == "" {
		return "", false
	}
	return b.Value, true
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseInstant parses an ISO-8601 timestamp as produced by the entity
// recogniser. Date-only and zone-less values are read as UTC.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not an ISO-8601 timestamp: %q", s)
}
