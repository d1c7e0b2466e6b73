package parser

import (
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/spreadsheet"
)

// Config tunes the extractors.
type Config struct {
	ScanRows int
	Now      func() time.Time
}

// Detector decodes raw report bytes and runs the extractor chain.
type Detector struct {
	extractors []Extractor
}

// NewDetector builds a Detector with the fixed priority
// Roster/Master, Monthly-Grid, Duration-Report.
func NewDetector(cfg Config) *Detector {
	if cfg.ScanRows <= 0 {
		cfg.ScanRows = DefaultScanRows
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Detector{
		extractors: []Extractor{
			RosterExtractor{ScanRows: cfg.ScanRows},
			MonthlyGridExtractor{ScanRows: cfg.ScanRows, Now: cfg.Now},
			DurationReportExtractor{},
		},
	}
}

// Detect returns the extracted records and the detected format name. Bytes that
// do not decode give FormatInvalid; a grid no extractor recognizes gives
// FormatUnknown.
func (d *Detector) Detect(data []byte) ([]Record, string) {
	grid, decoder, err := spreadsheet.Decode(data)
	if err != nil {
		slog.Debug("Report decode failed", "error", err)
		return nil, FormatInvalid
	}
	slog.Debug("Report decoded", "decoder", decoder, "rows", len(grid))
	return d.DetectGrid(grid)
}

// DetectGrid runs the extractor chain over an already decoded grid.
func (d *Detector) DetectGrid(grid spreadsheet.Grid) ([]Record, string) {
	for _, e := range d.extractors {
		if records, ok := e.TryExtract(grid); ok {
			slog.Debug("Report format detected", "format", e.Name(), "records", len(records))
			return records, e.Name()
		}
	}
	return nil, FormatUnknown
}
