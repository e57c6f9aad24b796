package schedule

import (
	"testing"
	"time"
)

// 2024-04-01 was a Monday.
var monday = time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

func at(base time.Time, hour, minute int) time.Time {
	return time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, base.Location())
}

func TestNextOccurrenceScenarios(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		rule Rule
		ref  time.Time
		want time.Time
	}{
		{
			name: "today's time already passed rolls a full week",
			rule: MustRule(9, 0, Days(time.Monday)),
			ref:  at(monday, 10, 0),
			want: at(monday.AddDate(0, 0, 7), 9, 0),
		},
		{
			name: "today's time still ahead fires same day",
			rule: MustRule(9, 0, Days(time.Monday)),
			ref:  at(monday, 8, 0),
			want: at(monday, 9, 0),
		},
		{
			name: "exact instant does not refire immediately",
			rule: MustRule(9, 0, EveryDay),
			ref:  at(monday.AddDate(0, 0, 1), 9, 0), // Tuesday 09:00 sharp
			want: at(monday.AddDate(0, 0, 2), 9, 0), // Wednesday 09:00
		},
		{
			name: "crosses the week boundary",
			rule: MustRule(7, 30, Days(time.Sunday)),
			ref:  at(monday, 12, 0),
			want: at(monday.AddDate(0, 0, 6), 7, 30),
		},
		{
			name: "empty mask falls back to every day",
			rule: MustRule(22, 15, 0),
			ref:  at(monday, 23, 0),
			want: at(monday.AddDate(0, 0, 1), 22, 15),
		},
		{
			name: "picks nearest of several active days",
			rule: MustRule(6, 0, Days(time.Wednesday, time.Friday)),
			ref:  at(monday, 6, 0),
			want: at(monday.AddDate(0, 0, 2), 6, 0),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := NextOccurrence(tt.rule, tt.ref)
			if !got.Equal(tt.want) {
				t.Fatalf("NextOccurrence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextOccurrenceStrictlyAfter(t *testing.T) {
	t.Parallel()
	rules := []Rule{
		MustRule(0, 0, EveryDay),
		MustRule(23, 59, Days(time.Saturday)),
		MustRule(12, 30, 0),
		MustRule(9, 0, Days(time.Monday, time.Thursday)),
	}
	refs := []time.Time{
		at(monday, 0, 0),
		at(monday, 23, 59),
		at(monday.AddDate(0, 0, 3), 12, 30),
	}
	for _, r := range rules {
		for _, ref := range refs {
			if got := NextOccurrence(r, ref); !got.After(ref) {
				t.Fatalf("NextOccurrence(%v, %v) = %v, not strictly after", r, ref, got)
			}
		}
	}
}

func TestNextOccurrenceSequence(t *testing.T) {
	t.Parallel()

	t.Run("single active day spaces exactly seven days", func(t *testing.T) {
		t.Parallel()
		rule := MustRule(9, 0, Days(time.Monday))
		ref := at(monday, 8, 0)
		prev := NextOccurrence(rule, ref)
		for i := 0; i < 10; i++ {
			next := NextOccurrence(rule, prev)
			if !next.After(prev) {
				t.Fatalf("sequence not strictly increasing at step %d: %v -> %v", i, prev, next)
			}
			if d := next.Sub(prev); d != 7*24*time.Hour {
				t.Fatalf("spacing = %v, want 168h", d)
			}
			prev = next
		}
	})

	t.Run("every day spaces exactly one day", func(t *testing.T) {
		t.Parallel()
		rule := MustRule(21, 45, EveryDay)
		prev := NextOccurrence(rule, at(monday, 0, 0))
		for i := 0; i < 10; i++ {
			next := NextOccurrence(rule, prev)
			if d := next.Sub(prev); d != 24*time.Hour {
				t.Fatalf("spacing = %v, want 24h", d)
			}
			prev = next
		}
	})
}

func TestEmptyMaskMatchesFullMask(t *testing.T) {
	t.Parallel()
	empty := MustRule(13, 0, 0)
	full := MustRule(13, 0, EveryDay)

	ref := at(monday, 13, 0)
	for i := 0; i < 14; i++ {
		a := NextOccurrence(empty, ref)
		b := NextOccurrence(full, ref)
		if !a.Equal(b) {
			t.Fatalf("step %d: empty mask %v != full mask %v", i, a, b)
		}
		ref = a
	}
}
