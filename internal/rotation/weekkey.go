package rotation

import (
	"fmt"
	"time"
)

// WeekKey returns the ISO-8601 week identifier for t in UTC, e.g. "2026-W35".
// Week 1 is the week containing the year's first Thursday; the year is the
// ISO year, which can differ from the calendar year around January 1st.
func WeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
