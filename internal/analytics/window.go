package analytics

import "time"

// WindowOptions are the trailing-window lengths the UI offers. The
// filter itself accepts any positive value.
var WindowOptions = []int{3, 6, 12, 24}

// DefaultWindow is used when no window length is requested.
const DefaultWindow = 12

// ValidWindow reports whether monthsBack is one of the recognized
// window lengths.
func ValidWindow(monthsBack int) bool {
	for _, m := range WindowOptions {
		if m == monthsBack {
			return true
		}
	}
	return false
}

// FilterWindow returns the rows whose date falls within the trailing
// monthsBack months, measured from the most recent dated row. The
// cutoff is the first day of the calendar month (monthsBack-1) months
// before the month of that maximum date, so a 1-month window covers
// exactly the latest month.
//
// Rows without a date always pass: a date-based window cannot exclude
// them. When no row has a date at all, every row passes unfiltered.
// The input is never mutated.
func FilterWindow(rows []Row, monthsBack int) []Row {
	if monthsBack < 1 {
		monthsBack = 1
	}

	var latest time.Time
	var found bool
	for _, r := range rows {
		if r.HasDate && (!found || r.Date.After(latest)) {
			latest = r.Date
			found = true
		}
	}
	if !found {
		out := make([]Row, len(rows))
		copy(out, rows)
		return out
	}

	cutoff := time.Date(latest.Year(), latest.Month()-time.Month(monthsBack-1), 1, 0, 0, 0, 0, time.UTC)

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if !r.HasDate || !r.Date.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}
