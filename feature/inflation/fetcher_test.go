package inflation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"salary-tracker/core/bls"
)

// fakeFetcher serves rows from a table keyed by "YYYY-Mnn".
type fakeFetcher struct {
	mu     sync.Mutex
	values map[string]string
	calls  []*bls.YearRange
	err    error
	gate   chan struct{}
}

func newFakeFetcher(values map[string]string) *fakeFetcher {
	return &fakeFetcher{values: values}
}

func (f *fakeFetcher) Fetch(ctx context.Context, seriesID string, years *bls.YearRange) (*bls.Payload, error) {
	f.mu.Lock()
	f.calls = append(f.calls, years)
	gate := f.gate
	err := f.err
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(f.values))
	for k := range f.values {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	var rows []bls.Row
	for _, k := range keys {
		year, period, _ := strings.Cut(k, "-")
		y, _ := strconv.Atoi(year)
		if years != nil && (y < years.Start || y > years.End) {
			continue
		}
		rows = append(rows, bls.Row{Year: year, Period: period, Value: f.values[k]})
	}

	p := &bls.Payload{
		Status:  bls.StatusSucceeded,
		Results: &bls.Results{Series: []bls.Series{{SeriesID: seriesID, Data: rows}}},
	}
	raw, _ := json.Marshal(p)
	p.Raw = raw
	return p, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) ranges() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.calls {
		if r == nil {
			out = append(out, "latest")
			continue
		}
		out = append(out, fmt.Sprintf("%d-%d", r.Start, r.End))
	}
	return out
}

// scenarioValues is a CPI-U excerpt.
func scenarioValues() map[string]string {
	return map[string]string{
		"2022-M12": "296.797",
		"2023-M01": "299.170",
		"2023-M06": "305.109",
		"2023-M12": "306.746",
		"2024-M01": "310.326",
	}
}

type countingRecorder struct {
	mu      sync.Mutex
	cache   map[string]int
	skipped map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{cache: map[string]int{}, skipped: map[string]int{}}
}

func (r *countingRecorder) IncCache(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[result]++
}

func (r *countingRecorder) IncSkipped(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped[reason]++
}

// newBLSServer serves the fake table over the statistics API wire format.
func newBLSServer(t *testing.T, values map[string]string) *httptest.Server {
	t.Helper()
	f := newFakeFetcher(values)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var years *bls.YearRange
		if start, err := strconv.Atoi(r.URL.Query().Get("startyear")); err == nil {
			end, _ := strconv.Atoi(r.URL.Query().Get("endyear"))
			years = &bls.YearRange{Start: start, End: end}
		}
		p, _ := f.Fetch(r.Context(), strings.TrimPrefix(r.URL.Path, "/"), years)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(p.Raw)
	}))
	t.Cleanup(srv.Close)
	return srv
}
