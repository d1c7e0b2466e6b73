package upload

import "errors"

// Upload domain errors
var (
	ErrInvalidFormat       = errors.New("file is neither a spreadsheet nor delimited text")
	ErrUnknownFormat       = errors.New("unknown file format")
	ErrEmptyExtraction     = errors.New("no attendance rows could be extracted")
	ErrLedgerEntryNotFound = errors.New("upload not found")
	ErrArtifactMissing     = errors.New("uploaded file is no longer available in storage")
	ErrNoFiles             = errors.New("at least one file is required")
	ErrTooManyFiles        = errors.New("too many files in one upload")
	ErrUploaderRequired    = errors.New("uploader identity is required")
)
