package inflation

import (
	"errors"
	"sort"
	"time"

	"salary-tracker/core/series"

	"github.com/shopspring/decimal"
)

// ErrZeroBase is returned when an adjustment is asked for against a zero index value.
var ErrZeroBase = errors.New("inflation: start value is zero")

var hundred = decimal.NewFromInt(100)

// Calculator answers inflation questions over one normalized series.
type Calculator struct {
	points []series.Point
}

// New creates a calculator. Points are copied and sorted by date.
func New(points []series.Point) *Calculator {
	cp := make([]series.Point, len(points))
	copy(cp, points)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Before(cp[j]) })
	return &Calculator{points: cp}
}

// Len returns the number of points.
func (c *Calculator) Len() int {
	return len(c.points)
}

// Latest returns the most recent point.
func (c *Calculator) Latest() (series.Point, bool) {
	if len(c.points) == 0 {
		return series.Point{}, false
	}
	return c.points[len(c.points)-1], true
}

// PointAt returns the closest point dated at or before date.
func (c *Calculator) PointAt(date time.Time) (series.Point, bool) {
	i := sort.Search(len(c.points), func(i int) bool {
		return c.points[i].Date.After(date)
	})
	if i == 0 {
		return series.Point{}, false
	}
	return c.points[i-1], true
}

// Rate returns the point-to-point inflation between the points in effect at
// start and at end.
func (c *Calculator) Rate(start, end time.Time) (decimal.Decimal, bool) {
	from, ok := c.PointAt(start)
	if !ok {
		return decimal.Zero, false
	}
	to, ok := c.PointAt(end)
	if !ok {
		return decimal.Zero, false
	}
	return ratio(from.Value, to.Value)
}

// AnnualRate returns year-over-year inflation: the latest point dated in year
// against the latest point dated in year-1.
func (c *Calculator) AnnualRate(year int) (decimal.Decimal, bool) {
	prev, ok := c.latestIn(year - 1)
	if !ok {
		return decimal.Zero, false
	}
	cur, ok := c.latestIn(year)
	if !ok {
		return decimal.Zero, false
	}
	return ratio(prev.Value, cur.Value)
}

// PurchasingPower adjusts salary by the index movement between start and end.
func (c *Calculator) PurchasingPower(salary decimal.Decimal, start, end time.Time) (Adjustment, bool) {
	from, ok := c.PointAt(start)
	if !ok {
		return Adjustment{}, false
	}
	to, ok := c.PointAt(end)
	if !ok {
		return Adjustment{}, false
	}
	adj, err := AdjustSalary(salary, from.Value, to.Value)
	if err != nil {
		return Adjustment{}, false
	}
	adj.StartDate = from.Date
	adj.EndDate = to.Date
	return adj, true
}

// latestIn picks the last point dated in year. Later entries win ties.
func (c *Calculator) latestIn(year int) (series.Point, bool) {
	for i := len(c.points) - 1; i >= 0; i-- {
		y := c.points[i].Date.Year()
		if y == year {
			return c.points[i], true
		}
		if y < year {
			break
		}
	}
	return series.Point{}, false
}

func ratio(start, end decimal.Decimal) (decimal.Decimal, bool) {
	if start.IsZero() {
		return decimal.Zero, false
	}
	return end.Sub(start).Div(start), true
}

// Percent renders a ratio as a percentage for display.
func Percent(rate decimal.Decimal) decimal.Decimal {
	return rate.Mul(hundred)
}
