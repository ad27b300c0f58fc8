package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/swiftscan/constants"
	"github.com/joseph-ayodele/swiftscan/internal/common"
	"github.com/joseph-ayodele/swiftscan/internal/entity"
)

// DefaultListLimit caps history listings when the caller passes no limit.
const DefaultListLimit = 200

type ScanRepository interface {
	Create(ctx context.Context, rec *entity.ScanRecord) error
	Get(ctx context.Context, id uuid.UUID) (*entity.ScanRecord, error)
	List(ctx context.Context, limit int) ([]*entity.ScanRecord, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status constants.ScanStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type scanRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewScanRepository(db *DB, logger *slog.Logger) ScanRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &scanRepository{db: db, logger: logger}
}

var scanColumns = []string{
	"id", "scanned_at", "name", "email", "role", "company", "phone",
	"raw_data", "draft_subject", "draft_body", "image_uri", "status",
}

func (r *scanRepository) Create(ctx context.Context, rec *entity.ScanRecord) error {
	if rec == nil {
		return common.InvalidInputErrorf("scan record is required")
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	var subject, body any
	if rec.EmailDraft != nil {
		subject, body = rec.EmailDraft.Subject, rec.EmailDraft.Body
	}
	c := rec.Contact
	query, args := entsql.Dialect(r.db.Dialect()).
		Insert(ScansTable.Name).
		Columns(scanColumns...).
		Values(rec.ID.String(), rec.Timestamp, c.Name, c.Email, c.Role, c.Company, c.Phone,
			nullable(c.RawData), subject, body, nullable(rec.ImageURI), string(rec.Status)).
		Query()
	if _, err := r.db.Driver.DB().ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to insert scan", "id", rec.ID, "error", err)
		return fmt.Errorf("%w: insert scan: %w", common.ErrDatabase, err)
	}
	r.logger.Debug("scan stored", "id", rec.ID, "status", rec.Status)
	return nil
}

func (r *scanRepository) Get(ctx context.Context, id uuid.UUID) (*entity.ScanRecord, error) {
	b := entsql.Dialect(r.db.Dialect())
	query, args := b.Select(scanColumns...).
		From(b.Table(ScansTable.Name)).
		Where(entsql.EQ("id", id.String())).
		Query()
	rows, err := r.db.Driver.DB().QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to get scan", "id", id, "error", err)
		return nil, fmt.Errorf("%w: get scan: %w", common.ErrDatabase, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("%w: get scan: %w", common.ErrDatabase, err)
		}
		return nil, common.NotFoundErrorf("scan %s not found", id)
	}
	return scanRecord(rows)
}

// List returns the most recent scans first.
func (r *scanRepository) List(ctx context.Context, limit int) ([]*entity.ScanRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	b := entsql.Dialect(r.db.Dialect())
	query, args := b.Select(scanColumns...).
		From(b.Table(ScansTable.Name)).
		OrderBy(entsql.Desc("scanned_at"), entsql.Desc("id")).
		Limit(limit).
		Query()
	rows, err := r.db.Driver.DB().QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list scans", "error", err)
		return nil, fmt.Errorf("%w: list scans: %w", common.ErrDatabase, err)
	}
	defer rows.Close()

	out := make([]*entity.ScanRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list scans: %w", common.ErrDatabase, err)
	}
	return out, nil
}

func (r *scanRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.ScanStatus) error {
	if _, ok := constants.ParseStatus(string(status)); !ok {
		return common.InvalidInputErrorf("unknown status %q", status)
	}
	query, args := entsql.Dialect(r.db.Dialect()).
		Update(ScansTable.Name).
		Set("status", string(status)).
		Where(entsql.EQ("id", id.String())).
		Query()
	return r.execOne(ctx, "update scan status", id, query, args)
}

func (r *scanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args := entsql.Dialect(r.db.Dialect()).
		Delete(ScansTable.Name).
		Where(entsql.EQ("id", id.String())).
		Query()
	return r.execOne(ctx, "delete scan", id, query, args)
}

// execOne runs a statement that must touch exactly one scan row.
func (r *scanRepository) execOne(ctx context.Context, op string, id uuid.UUID, query string, args []any) error {
	res, err := r.db.Driver.DB().ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to "+op, "id", id, "error", err)
		return fmt.Errorf("%w: %s: %w", common.ErrDatabase, op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", common.ErrDatabase, op, err)
	}
	if n == 0 {
		return common.NotFoundErrorf("scan %s not found", id)
	}
	return nil
}

func scanRecord(rows *sql.Rows) (*entity.ScanRecord, error) {
	var (
		id, status                   string
		rec                          entity.ScanRecord
		raw, subject, body, imageURI sql.NullString
	)
	err := rows.Scan(&id, &rec.Timestamp, &rec.Contact.Name, &rec.Contact.Email, &rec.Contact.Role,
		&rec.Contact.Company, &rec.Contact.Phone, &raw, &subject, &body, &imageURI, &status)
	if err != nil {
		return nil, fmt.Errorf("%w: scan row: %w", common.ErrDatabase, err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.Join(common.ErrDatabase, fmt.Errorf("bad scan id %q: %w", id, err))
	}
	rec.ID = parsed
	rec.Status = constants.ScanStatus(status)
	rec.Contact.RawData = raw.String
	rec.ImageURI = imageURI.String
	if subject.Valid {
		rec.EmailDraft = &entity.Draft{Subject: subject.String, Body: body.String}
	}
	return &rec, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
