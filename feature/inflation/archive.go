package inflation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"salary-tracker/core/bls"
	"salary-tracker/core/storage"
)

// ArchivePrefix is the storage folder holding raw payloads.
const ArchivePrefix = "series/"

const archiveTimeLayout = "20060102T150405"

// Archiver stores raw statistics API payloads in object storage.
type Archiver struct {
	client storage.Client
	bucket string
	now    func() time.Time
}

// NewArchiver creates an archiver writing to bucket.
func NewArchiver(client storage.Client, bucket string) *Archiver {
	return &Archiver{client: client, bucket: bucket, now: time.Now}
}

// ObjectName builds series/<id>/<timestamp>.json, suffixed with the year range
// when one was requested so chunks fetched in the same second do not collide.
func ObjectName(seriesID string, years *bls.YearRange, at time.Time) string {
	name := ArchivePrefix + seriesID + "/" + at.UTC().Format(archiveTimeLayout)
	if years != nil {
		name += fmt.Sprintf("_%d-%d", years.Start, years.End)
	}
	return name + ".json"
}

// Archive uploads the raw body of p and returns the object name.
func (a *Archiver) Archive(ctx context.Context, seriesID string, years *bls.YearRange, p *bls.Payload) (string, error) {
	if p == nil || len(p.Raw) == 0 {
		return "", fmt.Errorf("payload for %s has no raw body", seriesID)
	}
	name := ObjectName(seriesID, years, a.now())
	if err := storage.PutRaw(ctx, a.client, a.bucket, name, p.Raw); err != nil {
		return "", err
	}
	return name, nil
}

// List returns the archived object names of seriesID, oldest first.
func (a *Archiver) List(ctx context.Context, seriesID string) ([]string, error) {
	names, err := storage.ListNames(ctx, a.client, a.bucket, ArchivePrefix+seriesID+"/", true)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if strings.HasSuffix(n, ".json") {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Load reads an archived payload back.
func (a *Archiver) Load(ctx context.Context, name string) (*bls.Payload, error) {
	var p bls.Payload
	if err := storage.ReadJSON(ctx, a.client, a.bucket, name, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
