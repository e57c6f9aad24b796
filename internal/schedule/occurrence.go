package schedule

import "time"

const daysPerWeek = 7

// NextOccurrence returns the first instant strictly after ref at which the
// rule fires. All arithmetic stays in ref's location; callers get a
// consistent local-time reference for a single computation.
//
// A candidate equal to ref does not refire at the same instant: it rolls
// forward to the next eligible day. The scan is bounded: it inspects at
// most seven days and always finds a match (an empty day set matches the
// first candidate).
func NextOccurrence(r Rule, ref time.Time) time.Time {
	candidate := time.Date(ref.Year(), ref.Month(), ref.Day(), r.hour, r.minute, 0, 0, ref.Location())
	if !candidate.After(ref) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	for i := 0; i < daysPerWeek; i++ {
		day := candidate.AddDate(0, 0, i)
		if r.days.Empty() || r.days.Has(day.Weekday()) {
			return day
		}
	}
	// Unreachable: a non-empty mask has at least one bit within the scan.
	return candidate
}
