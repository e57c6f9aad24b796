// Package schedule models user-defined reminder recurrences: a time of day
// plus a weekday activation mask, and the computation of the next concrete
// instant a rule fires.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidRule is returned when a rule is constructed with an
// out-of-range time of day.
var ErrInvalidRule = errors.New("schedule: invalid rule")

// DaySet is a 7-bit weekday activation mask. Bit 0 is Sunday, bit 6 is
// Saturday, matching time.Weekday numbering. The zero value means "no day
// selected" and is treated everywhere as firing every day.
type DaySet uint8

// EveryDay has all seven weekday bits set.
const EveryDay DaySet = 0x7f

// Days builds a DaySet from the given weekdays.
func Days(days ...time.Weekday) DaySet {
	var s DaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

// With returns a copy of the set with d active.
func (s DaySet) With(d time.Weekday) DaySet {
	return s | 1<<uint(d)
}

// Has reports whether d is active in the set.
func (s DaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// Empty reports whether no day is selected. An empty set fires every day.
func (s DaySet) Empty() bool { return s&EveryDay == 0 }

func (s DaySet) String() string {
	if s.Empty() || s&EveryDay == EveryDay {
		return "every day"
	}
	var b strings.Builder
	for d := time.Sunday; d <= time.Saturday; d++ {
		if !s.Has(d) {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(d.String()[:3])
	}
	return b.String()
}

// Rule is an immutable recurrence: a time of day plus the weekdays it is
// active on. Edits produce a replacement value via NewRule.
type Rule struct {
	hour   int
	minute int
	days   DaySet
}

// NewRule validates the time of day and returns the rule.
// Hour must be in [0,23] and minute in [0,59].
func NewRule(hour, minute int, days DaySet) (Rule, error) {
	if hour < 0 || hour > 23 {
		return Rule{}, fmt.Errorf("%w: hour %d out of range", ErrInvalidRule, hour)
	}
	if minute < 0 || minute > 59 {
		return Rule{}, fmt.Errorf("%w: minute %d out of range", ErrInvalidRule, minute)
	}
	return Rule{hour: hour, minute: minute, days: days & EveryDay}, nil
}

// MustRule is NewRule for fixtures and tests; it panics on invalid input.
func MustRule(hour, minute int, days DaySet) Rule {
	r, err := NewRule(hour, minute, days)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Rule) Hour() int     { return r.hour }
func (r Rule) Minute() int   { return r.minute }
func (r Rule) Days() DaySet  { return r.days }
func (r Rule) Clock() string { return fmt.Sprintf("%02d:%02d", r.hour, r.minute) }

func (r Rule) String() string {
	return r.Clock() + " on " + r.days.String()
}

// ParseClock parses an "HH:MM" string into an hour and minute pair.
func ParseClock(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q, expected HH:MM", ErrInvalidRule, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("%w: bad hour in %q", ErrInvalidRule, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("%w: bad minute in %q", ErrInvalidRule, s)
	}
	return h, m, nil
}
