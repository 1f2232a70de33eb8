package periods

import "time"

// PeriodStatus enumerates valid period states.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
	PeriodStatusLocked PeriodStatus = "LOCKED"
)

// Period represents a fiscal period window. Both bounds are inclusive dates.
type Period struct {
	ID        int64
	Code      string
	StartDate time.Time
	EndDate   time.Time
	Status    PeriodStatus
	ClosedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Window builds an ad-hoc open period covering [start, end].
func Window(start, end time.Time) Period {
	return Period{
		Code:      start.Format("2006-01-02") + ".." + end.Format("2006-01-02"),
		StartDate: day(start),
		EndDate:   day(end),
		Status:    PeriodStatusOpen,
	}
}

// Month returns the calendar month containing t.
func Month(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	p := Window(start, start.AddDate(0, 1, -1))
	p.Code = start.Format("2006-01")
	return p
}

// Contains reports whether date falls within the period, ignoring time of day.
func (p Period) Contains(date time.Time) bool {
	d := day(date)
	return !d.Before(day(p.StartDate)) && !d.After(day(p.EndDate))
}

// Prior returns the period ending the day before p starts. A run of whole
// calendar months maps to the same number of preceding months; any other
// window maps to one of equal length.
func (p Period) Prior() Period {
	start, end := day(p.StartDate), day(p.EndDate)
	if months, ok := wholeMonths(start, end); ok {
		prior := Window(start.AddDate(0, -months, 0), start.AddDate(0, 0, -1))
		if months == 1 {
			prior.Code = prior.StartDate.Format("2006-01")
		}
		return prior
	}
	days := int(end.Sub(start).Hours()/24) + 1
	last := start.AddDate(0, 0, -1)
	return Window(last.AddDate(0, 0, -(days - 1)), last)
}

func wholeMonths(start, end time.Time) (int, bool) {
	if start.Day() != 1 || end.AddDate(0, 0, 1).Day() != 1 {
		return 0, false
	}
	next := end.AddDate(0, 0, 1)
	months := (next.Year()-start.Year())*12 + int(next.Month()-start.Month())
	return months, months > 0
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
