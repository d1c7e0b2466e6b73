// Command recalculate recomputes total_duration from first_in/last_out for every
// stored attendance record.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cmlabs-hris/attendix-backend-go/internal/config"
	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendix-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendix-backend-go/internal/service/attendance"
)

// errDryRun rolls back the outer transaction after a dry run.
var errDryRun = errors.New("dry run")

type recalculateOptions struct {
	dryRun bool
}

func main() {
	if err := newRecalculateCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("Recalculation failed", "error", err)
		os.Exit(1)
	}
}

func newRecalculateCmd() *cobra.Command {
	var opts recalculateOptions

	cmd := &cobra.Command{
		Use:          "recalculate",
		Short:        "Recompute total_duration of every attendance record from first_in and last_out",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecalculate(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Report what would change and roll back")

	return cmd
}

func runRecalculate(ctx context.Context, opts recalculateOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	transactor := postgresql.NewTransactor(db)
	svc := attendanceService.NewAttendanceService(postgresql.NewAttendanceRepository(db), transactor)

	var result attendance.RecalculateResult
	err = transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		result, err = svc.RecalculateDurations(txCtx)
		if err != nil {
			return err
		}
		if opts.dryRun {
			return errDryRun
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return err
	}

	slog.Info("Recalculated total durations",
		"scanned", result.Scanned,
		"updated", result.Updated,
		"dry_run", opts.dryRun,
	)
	return nil
}
