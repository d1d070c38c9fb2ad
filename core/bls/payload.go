package bls

import (
	"encoding/json"
	"fmt"
)

// Payload is the decoded response body of a time series request.
type Payload struct {
	Status       string   `json:"status"`
	ResponseTime int      `json:"responseTime,omitempty"`
	Message      []string `json:"message"`
	Results      *Results `json:"Results"`

	// Raw is the body as received, kept for archiving.
	Raw json.RawMessage `json:"-"`
}

// Results wraps the list of returned series.
type Results struct {
	Series []Series `json:"series"`
}

// Series is one published time series.
type Series struct {
	SeriesID string `json:"seriesID"`
	Data     []Row  `json:"data"`
}

// Row is a single observation exactly as the provider encodes it.
type Row struct {
	Year       string     `json:"year"`
	Period     string     `json:"period"`
	PeriodName string     `json:"periodName"`
	Latest     string     `json:"latest,omitempty"`
	Value      string     `json:"value"`
	Footnotes  []Footnote `json:"footnotes"`
}

// Footnote is an opaque annotation attached to a row.
type Footnote struct {
	Code string `json:"code,omitempty"`
	Text string `json:"text,omitempty"`
}

// YearRange restricts a request to [Start, End], inclusive.
type YearRange struct {
	Start int
	End   int
}

// Validate checks that the range is well formed.
func (r YearRange) Validate() error {
	if r.Start <= 0 || r.End <= 0 {
		return fmt.Errorf("invalid year range %d-%d: years must be positive", r.Start, r.End)
	}
	if r.Start > r.End {
		return fmt.Errorf("invalid year range %d-%d: start after end", r.Start, r.End)
	}
	return nil
}

// Split cuts the range into consecutive windows of at most span years.
func (r YearRange) Split(span int) []YearRange {
	if span <= 0 {
		return []YearRange{r}
	}
	var out []YearRange
	for start := r.Start; start <= r.End; start += span {
		end := start + span - 1
		if end > r.End {
			end = r.End
		}
		out = append(out, YearRange{Start: start, End: end})
	}
	return out
}

// Decode parses a response body and checks the API-level status.
func Decode(body []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, &APIError{Messages: []string{"malformed response body"}, Err: err}
	}
	if p.Status != StatusSucceeded {
		return nil, &APIError{Status: p.Status, Messages: p.Message}
	}
	p.Raw = json.RawMessage(body)
	return &p, nil
}
