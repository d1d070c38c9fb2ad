package series

import (
	"time"

	"salary-tracker/core/bls"

	"github.com/shopspring/decimal"
)

// Point is one normalized observation.
type Point struct {
	// Date is the first day of the period, in UTC.
	Date        time.Time       `json:"date"`
	Value       decimal.Decimal `json:"value"`
	PeriodLabel string          `json:"period_label"`
	Year        int             `json:"year"`
	PeriodCode  string          `json:"period_code"`
	Footnotes   []bls.Footnote  `json:"footnotes,omitempty"`
}

// Before orders points by date, then by year and period code.
func (p Point) Before(o Point) bool {
	if !p.Date.Equal(o.Date) {
		return p.Date.Before(o.Date)
	}
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.PeriodCode < o.PeriodCode
}
