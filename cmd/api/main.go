package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendix-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/attendix-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/attendix-backend-go/internal/parser"
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/attendix-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendix-backend-go/internal/service/attendance"
	"github.com/cmlabs-hris/attendix-backend-go/internal/service/file"
	ingestionService "github.com/cmlabs-hris/attendix-backend-go/internal/service/ingestion"
	uploadService "github.com/cmlabs-hris/attendix-backend-go/internal/service/upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(context.Background(), dsn)
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgresql.EnsureSchema(context.Background(), db); err != nil {
		slog.Error("Error applying schema", "error", err)
		os.Exit(1)
	}

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	ledgerRepo := postgresql.NewUploadLedgerRepository(db)
	transactor := postgresql.NewTransactor(db)

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath)
	if err != nil {
		slog.Error("Failed to initialize local storage", "error", err)
		os.Exit(1)
	}
	fileService := file.NewFileService(fileStorage)

	detector := parser.NewDetector(parser.Config{ScanRows: cfg.Ingestion.GridScanRows})

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, transactor)
	ledgerSvc := uploadService.NewLedgerService(ledgerRepo, fileService)
	ingestionSvc := ingestionService.NewIngestionService(
		detector,
		ledgerRepo,
		attendanceRepo,
		fileService,
		transactor,
		ingestionService.Config{ProtectManualCorrections: cfg.Ingestion.ProtectManualCorrections},
	)

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	uploadHandler := appHTTP.NewUploadHandler(ingestionSvc, ledgerSvc, appHTTP.UploadLimits{
		MaxBytes: cfg.Ingestion.MaxUploadBytes(),
		MaxFiles: cfg.Ingestion.MaxFiles,
	})

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			Env:            cfg.App.Env,
			AllowedOrigins: []string{cfg.App.FrontendURL},
			LogLevel:       cfg.SlogLevel(),
			RequestTimeout: cfg.Ingestion.RequestTimeout,
		},
		JWTService,
		attendanceHandler,
		uploadHandler,
	)

	scheduler := cron.NewScheduler()
	cron.NewArtifactJobs(ledgerSvc, cfg.Ingestion.OrphanCheckInterval).RegisterJobs(scheduler)
	scheduler.Start(context.Background())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}
