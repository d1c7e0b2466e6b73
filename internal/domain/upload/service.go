package upload

import (
	"context"
	"io"
)

// IngestionService turns uploaded report files into canonical attendance records
type IngestionService interface {
	// Ingest processes one file: dedup gate, detection, artifact write, and upsert
	// in a single transaction. Failures are reported in the result, never returned.
	Ingest(ctx context.Context, file File, uploader string) FileResult

	// IngestBatch processes files strictly in order
	IngestBatch(ctx context.Context, files []File, uploader string) BatchResult
}

// LedgerService exposes the upload history and stored artifacts
type LedgerService interface {
	ListUploads(ctx context.Context, filter ListFilter) (ListLedgerResponse, error)

	// OpenArtifact returns the stored bytes of an upload; the caller closes the reader
	OpenArtifact(ctx context.Context, id string) (LedgerEntry, io.ReadCloser, error)

	// FindMissingArtifacts returns ledger entries whose stored file no longer exists
	FindMissingArtifacts(ctx context.Context) ([]LedgerEntry, error)
}
