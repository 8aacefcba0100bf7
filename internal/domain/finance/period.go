package finance

import (
	"fmt"
	"time"

	"trendzportal/internal/core/apperror"
)

// Period is a calendar month.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// PeriodOf returns the month containing d.
func PeriodOf(d time.Time) Period {
	return Period{Year: d.Year(), Month: d.Month()}
}

// NewPeriod validates year and month.
func NewPeriod(year, month int) (Period, error) {
	if year < 1900 || year > 9999 {
		return Period{}, apperror.NewValidation("year out of range").WithDetail("year", year)
	}
	if month < 1 || month > 12 {
		return Period{}, apperror.NewValidation("month must be 1-12").WithDetail("month", month)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// Start is the first day of the month, UTC midnight.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the first day of the next month (exclusive bound).
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Contains reports whether d falls in the month.
func (p Period) Contains(d time.Time) bool {
	return d.Year() == p.Year && d.Month() == p.Month
}

// String renders YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
