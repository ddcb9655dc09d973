package modelfile

import (
	"fmt"
	"time"

	"strategy-reset-lab/internal/domain"
)

// CheckDateRange reports where the model output fails to cover the calendar
// days start through end (inclusive, UTC). An empty result means the output
// spans the whole range. Gaps are warnings, not errors.
func CheckDateRange(rows []domain.ModelOutputRow, start, end time.Time) []string {
	if len(rows) == 0 {
		return []string{"model output has no rows"}
	}

	first, last := rows[0].Time, rows[0].Time
	for _, r := range rows[1:] {
		if r.Time.Before(first) {
			first = r.Time
		}
		if r.Time.After(last) {
			last = r.Time
		}
	}

	from := dayOf(start)
	to := dayOf(end)

	var warnings []string
	if dayOf(first).After(from) {
		warnings = append(warnings, fmt.Sprintf("model output starts %s, after start date %s",
			first.Format(time.DateTime), from.Format(time.DateOnly)))
	}
	if dayOf(last).Before(to) {
		warnings = append(warnings, fmt.Sprintf("model output ends %s, before end date %s",
			last.Format(time.DateTime), to.Format(time.DateOnly)))
	}
	if !first.Before(to.AddDate(0, 0, 1)) || last.Before(from) {
		warnings = append(warnings, "model output does not overlap the requested range")
	}
	return warnings
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
