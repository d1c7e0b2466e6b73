package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/upload"
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const ledgerColumns = `
	id, content_hash, filename, uploaded_by, detected_format,
	storage_path, content_type, size_bytes, uploaded_at`

func scanLedgerEntry(row rowScanner) (upload.LedgerEntry, error) {
	var e upload.LedgerEntry
	err := row.Scan(
		&e.ID, &e.ContentHash, &e.Filename, &e.UploadedBy, &e.DetectedFormat,
		&e.StoragePath, &e.ContentType, &e.SizeBytes, &e.UploadedAt,
	)
	return e, err
}

type uploadLedgerRepository struct {
	db *database.DB
}

func NewUploadLedgerRepository(db *database.DB) upload.LedgerRepository {
	return &uploadLedgerRepository{db: db}
}

// GetByHash implements upload.LedgerRepository.
func (r *uploadLedgerRepository) GetByHash(ctx context.Context, contentHash string) (upload.LedgerEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + ledgerColumns + ` FROM upload_ledger WHERE content_hash = $1`

	entry, err := scanLedgerEntry(q.QueryRow(ctx, query, contentHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return upload.LedgerEntry{}, upload.ErrLedgerEntryNotFound
		}
		return upload.LedgerEntry{}, fmt.Errorf("failed to get upload by hash: %w", err)
	}

	return entry, nil
}

// CreateIfAbsent implements upload.LedgerRepository.
func (r *uploadLedgerRepository) CreateIfAbsent(ctx context.Context, entry upload.LedgerEntry) (upload.LedgerEntry, bool, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return upload.LedgerEntry{}, false, fmt.Errorf("failed to generate upload id: %w", err)
	}

	query := `
		INSERT INTO upload_ledger (
			id, content_hash, filename, uploaded_by, detected_format,
			storage_path, content_type, size_bytes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		ON CONFLICT (content_hash) DO NOTHING
		RETURNING ` + ledgerColumns

	stored, err := scanLedgerEntry(q.QueryRow(ctx, query,
		id.String(),
		entry.ContentHash,
		entry.Filename,
		entry.UploadedBy,
		entry.DetectedFormat,
		entry.StoragePath,
		entry.ContentType,
		entry.SizeBytes,
	))
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return upload.LedgerEntry{}, false, fmt.Errorf("failed to create upload ledger entry: %w", err)
	}

	// Another upload of the same content committed first.
	stored, err = r.GetByHash(ctx, entry.ContentHash)
	if err != nil {
		return upload.LedgerEntry{}, false, err
	}
	return stored, false, nil
}

// GetByID implements upload.LedgerRepository.
func (r *uploadLedgerRepository) GetByID(ctx context.Context, id string) (upload.LedgerEntry, error) {
	// Ids are UUIDv7; anything else cannot exist and would fail the uuid cast.
	if !validator.IsValidUUID(id) {
		return upload.LedgerEntry{}, upload.ErrLedgerEntryNotFound
	}
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + ledgerColumns + ` FROM upload_ledger WHERE id = $1`

	entry, err := scanLedgerEntry(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return upload.LedgerEntry{}, upload.ErrLedgerEntryNotFound
		}
		return upload.LedgerEntry{}, fmt.Errorf("failed to get upload by ID: %w", err)
	}

	return entry, nil
}

// List implements upload.LedgerRepository.
func (r *uploadLedgerRepository) List(ctx context.Context, filter upload.ListFilter) ([]upload.LedgerEntry, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "1 = 1"
	args := []interface{}{}
	argIdx := 1

	if filter.UploadedBy != nil && *filter.UploadedBy != "" {
		baseWhere += fmt.Sprintf(" AND uploaded_by = $%d", argIdx)
		args = append(args, *filter.UploadedBy)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM upload_ledger WHERE "+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count uploads: %w", err)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM upload_ledger
		WHERE %s
		ORDER BY uploaded_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, ledgerColumns, baseWhere, argIdx, argIdx+1)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer rows.Close()

	var entries []upload.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan upload: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate uploads: %w", err)
	}

	return entries, total, nil
}
