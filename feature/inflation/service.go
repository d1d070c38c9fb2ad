package inflation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"salary-tracker/core/bls"
	"salary-tracker/core/inflation"
	"salary-tracker/core/series"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrInvalidRange is returned when a date or year range is reversed or empty.
	ErrInvalidRange = errors.New("invalid range")
	// ErrNoData is returned when the series has no observation for a requested date.
	ErrNoData = errors.New("no observation available")
)

// Fetcher retrieves raw series payloads. *bls.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, seriesID string, years *bls.YearRange) (*bls.Payload, error)
}

// Recorder receives service telemetry. A nil Recorder is ignored.
type Recorder interface {
	series.SkipCounter
	IncCache(result string)
}

// RateReport is a point-to-point inflation figure.
type RateReport struct {
	SeriesID   string          `json:"series_id"`
	StartPoint series.Point    `json:"start_point"`
	EndPoint   series.Point    `json:"end_point"`
	Rate       decimal.Decimal `json:"rate"`
	Percent    decimal.Decimal `json:"percent"`
}

// AnnualReport is a year-over-year inflation figure.
type AnnualReport struct {
	SeriesID string          `json:"series_id"`
	Year     int             `json:"year"`
	Rate     decimal.Decimal `json:"rate"`
	Percent  decimal.Decimal `json:"percent"`
}

// PowerReport is a salary restated in end-period money.
type PowerReport struct {
	SeriesID string `json:"series_id"`
	inflation.Adjustment
	Percent decimal.Decimal `json:"percent"`
}

// Service answers inflation questions from a cached, normalized series.
type Service struct {
	fetcher  Fetcher
	cfg      inflation.Config
	span     int
	cache    *seriesCache
	archiver *Archiver
	logger   *zap.Logger
	metrics  Recorder
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithArchiver archives every fetched payload.
func WithArchiver(a *Archiver) Option {
	return func(s *Service) { s.archiver = a }
}

// WithRecorder attaches a telemetry recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// WithClock replaces the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.cache.now = now
	}
}

// NewService creates the inflation service. span is the widest year range a
// single upstream request may cover.
func NewService(fetcher Fetcher, cfg inflation.Config, span int, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Series == "" {
		cfg.Series = inflation.DefaultSeries
	}
	s := &Service{
		fetcher: fetcher,
		cfg:     cfg,
		span:    span,
		cache:   newSeriesCache(cfg.CacheTTL),
		logger:  logger.Named("inflation"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeriesID resolves an empty id to the configured default.
func (s *Service) SeriesID(id string) string {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" {
		return s.cfg.Series
	}
	return id
}

// Series returns the normalized points of seriesID, served from cache when fresh.
// A nil range asks the upstream for its default window.
func (s *Service) Series(ctx context.Context, seriesID string, years *bls.YearRange) ([]series.Point, error) {
	seriesID = s.SeriesID(seriesID)
	if years != nil {
		if err := years.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
		}
	}

	points, hit, err := s.cache.getOrLoad(ctx, cacheKey(seriesID, years), func(ctx context.Context) ([]series.Point, error) {
		return s.FetchRange(ctx, seriesID, years)
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		if hit {
			s.metrics.IncCache("hit")
		} else {
			s.metrics.IncCache("miss")
		}
	}
	return points, nil
}

// FetchRange bypasses the cache. Ranges wider than the request span are
// fetched in consecutive chunks and merged.
func (s *Service) FetchRange(ctx context.Context, seriesID string, years *bls.YearRange) ([]series.Point, error) {
	if years == nil {
		return s.fetchChunk(ctx, seriesID, nil)
	}

	chunks := years.Split(s.span)
	parts := make([][]series.Point, 0, len(chunks))
	for _, chunk := range chunks {
		pts, err := s.fetchChunk(ctx, seriesID, &chunk)
		if err != nil {
			return nil, err
		}
		parts = append(parts, pts)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return series.Merge(parts...), nil
}

func (s *Service) fetchChunk(ctx context.Context, seriesID string, years *bls.YearRange) ([]series.Point, error) {
	payload, err := s.fetcher.Fetch(ctx, seriesID, years)
	if err != nil {
		return nil, err
	}

	if s.archiver != nil && s.cfg.Archive {
		if name, err := s.archiver.Archive(ctx, seriesID, years, payload); err != nil {
			s.logger.Warn("Failed to archive payload", zap.String("series", seriesID), zap.Error(err))
		} else {
			s.logger.Debug("Archived payload", zap.String("object", name))
		}
	}

	var skipped series.SkipCounter
	if s.metrics != nil {
		skipped = s.metrics
	}
	return series.NormalizeWith(payload, s.logger, skipped)
}

// Invalidate drops the cached ranges of seriesID.
func (s *Service) Invalidate(seriesID string) int {
	return s.cache.invalidate(s.SeriesID(seriesID))
}

// Rate computes point-to-point inflation between the observations at or
// before start and end. ErrNoData is returned when either is missing.
func (s *Service) Rate(ctx context.Context, seriesID string, start, end time.Time) (RateReport, error) {
	seriesID = s.SeriesID(seriesID)
	calc, err := s.calculator(ctx, seriesID, start, end)
	if err != nil {
		return RateReport{}, err
	}

	startPoint, okStart := calc.PointAt(start)
	endPoint, okEnd := calc.PointAt(end)
	rate, ok := calc.Rate(start, end)
	if !okStart || !okEnd || !ok {
		return RateReport{}, fmt.Errorf("%w: %s between %s and %s", ErrNoData, seriesID, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	return RateReport{
		SeriesID:   seriesID,
		StartPoint: startPoint,
		EndPoint:   endPoint,
		Rate:       rate,
		Percent:    inflation.Percent(rate),
	}, nil
}

// AnnualRate computes year-over-year inflation for year.
func (s *Service) AnnualRate(ctx context.Context, seriesID string, year int) (AnnualReport, error) {
	seriesID = s.SeriesID(seriesID)
	points, err := s.Series(ctx, seriesID, &bls.YearRange{Start: year - 1, End: year})
	if err != nil {
		return AnnualReport{}, err
	}

	rate, ok := inflation.New(points).AnnualRate(year)
	if !ok {
		return AnnualReport{}, fmt.Errorf("%w: %s for %d", ErrNoData, seriesID, year)
	}
	return AnnualReport{SeriesID: seriesID, Year: year, Rate: rate, Percent: inflation.Percent(rate)}, nil
}

// PurchasingPower restates salary, earned at start, in money of end.
func (s *Service) PurchasingPower(ctx context.Context, seriesID string, salary decimal.Decimal, start, end time.Time) (PowerReport, error) {
	seriesID = s.SeriesID(seriesID)
	calc, err := s.calculator(ctx, seriesID, start, end)
	if err != nil {
		return PowerReport{}, err
	}

	adj, ok := calc.PurchasingPower(salary, start, end)
	if !ok {
		return PowerReport{}, fmt.Errorf("%w: %s between %s and %s", ErrNoData, seriesID, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	rate, _ := calc.Rate(start, end)
	return PowerReport{SeriesID: seriesID, Adjustment: adj, Percent: inflation.Percent(rate)}, nil
}

// Today returns the service clock's current date.
func (s *Service) Today() time.Time {
	y, m, d := s.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *Service) calculator(ctx context.Context, seriesID string, start, end time.Time) (*inflation.Calculator, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	// The observation in effect at start may have been published the year before.
	points, err := s.Series(ctx, seriesID, &bls.YearRange{Start: start.Year() - 1, End: end.Year()})
	if err != nil {
		return nil, err
	}
	return inflation.New(points), nil
}
