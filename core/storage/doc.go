// Package storage wraps the MinIO client behind a small Client interface.
//
// The service stores two kinds of objects: raw statistics API payloads under
// series/<id>/ and payroll export files under imports/. Both S3 and self-hosted
// MinIO are supported.
//
// The helpers EnsureBucket, PutJSON, ReadJSON and ListNames cover the JSON
// round trips the features need. core/storage/mocks holds a testify mock of
// Client for unit tests.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.PutJSON(ctx, client, cfg.Storage.Bucket, "imports/u1.json", records)
package storage
