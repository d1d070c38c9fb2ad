package checks

import (
	"context"
	"fmt"

	"salary-tracker/core/bls"
	"salary-tracker/core/series"
	"salary-tracker/core/storage"

	"go.uber.org/zap"
)

// ArchiveReport describes the archived payloads of one series.
type ArchiveReport struct {
	SeriesID string `json:"series_id"`
	Objects  int    `json:"objects"`
	Latest   string `json:"latest,omitempty"`
	Points   int    `json:"points"`
	Status   string `json:"status"` // "ok", "empty", "error"
	Error    string `json:"error,omitempty"`
}

// ArchiveLister is the part of the inflation archiver the check relies on.
type ArchiveLister interface {
	List(ctx context.Context, seriesID string) ([]string, error)
}

// CheckArchive verifies that the newest archived payload of seriesID still
// decodes and normalizes. A series with no archive reports "empty".
func CheckArchive(ctx context.Context, client storage.Client, bucket string, lister ArchiveLister, seriesID string, logger *zap.Logger) (*ArchiveReport, error) {
	names, err := lister.List(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to list archive of %s: %w", seriesID, err)
	}

	report := &ArchiveReport{SeriesID: seriesID, Objects: len(names), Status: "empty"}
	if len(names) == 0 {
		return report, nil
	}

	report.Latest = names[len(names)-1]
	payload, err := readPayload(ctx, client, bucket, report.Latest)
	if err != nil {
		report.Status = "error"
		report.Error = err.Error()
		return report, nil
	}

	points, err := series.Normalize(payload, logger)
	if err != nil {
		report.Status = "error"
		report.Error = err.Error()
		return report, nil
	}

	report.Points = len(points)
	report.Status = "ok"
	return report, nil
}

func readPayload(ctx context.Context, client storage.Client, bucket, name string) (*bls.Payload, error) {
	var p bls.Payload
	if err := storage.ReadJSON(ctx, client, bucket, name, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
