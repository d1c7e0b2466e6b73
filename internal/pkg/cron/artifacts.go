package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/upload"
)

type ArtifactJobs struct {
	ledgerService upload.LedgerService
	interval      time.Duration
}

func NewArtifactJobs(ledgerService upload.LedgerService, interval time.Duration) *ArtifactJobs {
	return &ArtifactJobs{
		ledgerService: ledgerService,
		interval:      interval,
	}
}

// RegisterJobs is a no-op when the interval is not positive.
func (j *ArtifactJobs) RegisterJobs(scheduler *Scheduler) {
	if j.interval <= 0 {
		return
	}
	scheduler.AddJob("check_missing_artifacts", j.interval, j.CheckMissingArtifacts, WithTimeout(j.interval))
}

// CheckMissingArtifacts logs every ledger entry whose stored report is gone.
func (j *ArtifactJobs) CheckMissingArtifacts(ctx context.Context) error {
	slog.Info("Cron: Starting missing artifact check")

	missing, err := j.ledgerService.FindMissingArtifacts(ctx)
	if err != nil {
		return fmt.Errorf("failed to check artifacts: %w", err)
	}

	for _, entry := range missing {
		slog.Warn("Cron: Upload artifact missing",
			"upload_id", entry.ID,
			"filename", entry.Filename,
			"storage_path", entry.StoragePath,
			"uploaded_by", entry.UploadedBy)
	}

	slog.Info("Cron: Missing artifact check finished", "missing", len(missing))
	return nil
}
