package upload

import "time"

// LedgerEntry records one distinct uploaded artifact, keyed by content hash.
type LedgerEntry struct {
	ID             string
	ContentHash    string
	Filename       string
	UploadedBy     string
	DetectedFormat string
	StoragePath    string
	ContentType    *string
	SizeBytes      int64
	UploadedAt     time.Time
}

// File is a raw report as received from the uploader.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}
