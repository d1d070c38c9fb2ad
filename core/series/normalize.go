package series

import (
	"sort"
	"strconv"
	"strings"

	"salary-tracker/core/bls"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SkipCounter is notified for every dropped row. A nil SkipCounter is ignored.
type SkipCounter interface {
	IncSkipped(reason string)
}

// Normalize converts the first series of a payload into points sorted by date.
// A payload without the expected Results/series nesting is an *bls.APIError;
// an empty result is not.
func Normalize(p *bls.Payload, logger *zap.Logger) ([]Point, error) {
	return NormalizeWith(p, logger, nil)
}

// NormalizeWith is Normalize with a counter for dropped rows.
func NormalizeWith(p *bls.Payload, logger *zap.Logger, skipped SkipCounter) ([]Point, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if p == nil || p.Results == nil || len(p.Results.Series) == 0 {
		return nil, &bls.APIError{Messages: []string{"payload has no Results.series"}}
	}

	s := p.Results.Series[0]
	l := logger.With(zap.String("series", s.SeriesID))

	skip := func(row bls.Row, reason string) {
		l.Debug("Skipping row",
			zap.String("reason", reason),
			zap.String("year", row.Year),
			zap.String("period", row.Period),
			zap.String("value", row.Value))
		if skipped != nil {
			skipped.IncSkipped(reason)
		}
	}

	points := make([]Point, 0, len(s.Data))
	for _, row := range s.Data {
		year, err := strconv.Atoi(strings.TrimSpace(row.Year))
		if err != nil {
			skip(row, "invalid_year")
			continue
		}

		code := strings.ToUpper(strings.TrimSpace(row.Period))
		date, err := ParsePeriod(year, code)
		if err != nil {
			skip(row, "unsupported_period")
			continue
		}

		value, err := decimal.NewFromString(strings.TrimSpace(row.Value))
		if err != nil {
			skip(row, "invalid_value")
			continue
		}
		if !value.IsPositive() {
			skip(row, "non_positive_value")
			continue
		}

		points = append(points, Point{
			Date:        date,
			Value:       value,
			PeriodLabel: row.PeriodName,
			Year:        year,
			PeriodCode:  code,
			Footnotes:   footnotes(row.Footnotes),
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Before(points[j])
	})

	if dropped := len(s.Data) - len(points); dropped > 0 {
		l.Info("Normalized series with dropped rows",
			zap.Int("rows", len(s.Data)),
			zap.Int("points", len(points)),
			zap.Int("dropped", dropped))
	}

	return points, nil
}

// Merge combines several normalized sequences into one, keeping the first point
// seen for each (year, period) and preserving date order.
func Merge(parts ...[]Point) []Point {
	seen := make(map[string]struct{})
	var out []Point
	for _, part := range parts {
		for _, p := range part {
			key := strconv.Itoa(p.Year) + p.PeriodCode
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Before(out[j])
	})
	return out
}

func footnotes(in []bls.Footnote) []bls.Footnote {
	var out []bls.Footnote
	for _, f := range in {
		if f.Code == "" && f.Text == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}
