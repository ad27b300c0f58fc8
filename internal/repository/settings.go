package repository

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/swiftscan/internal/common"
	"github.com/joseph-ayodele/swiftscan/internal/entity"
)

type SettingsRepository interface {
	// Get returns the stored settings, or the defaults when none were saved.
	Get(ctx context.Context) (entity.Settings, error)
	Save(ctx context.Context, s entity.Settings) error
}

type settingsRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewSettingsRepository(db *DB, logger *slog.Logger) SettingsRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &settingsRepository{db: db, logger: logger}
}

func (r *settingsRepository) Get(ctx context.Context) (entity.Settings, error) {
	b := entsql.Dialect(r.db.Dialect())
	query, args := b.Select("value").
		From(b.Table(KVTable.Name)).
		Where(entsql.EQ("key", entity.SettingsKey)).
		Query()

	var blob string
	err := r.db.Driver.DB().QueryRowContext(ctx, query, args...).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.DefaultSettings(), nil
	}
	if err != nil {
		r.logger.Error("failed to read settings", "error", err)
		return entity.Settings{}, fmt.Errorf("%w: read settings: %w", common.ErrDatabase, err)
	}

	// A blob that no longer matches the schema is treated like a missing one.
	if err := ValidateSettingsJSON([]byte(blob)); err != nil {
		r.logger.Warn("stored settings invalid, using defaults", "error", err)
		return entity.DefaultSettings(), nil
	}
	var s entity.Settings
	if err := json.Unmarshal([]byte(blob), &s); err != nil {
		r.logger.Warn("stored settings unreadable, using defaults", "error", err)
		return entity.DefaultSettings(), nil
	}
	return s, nil
}

func (r *settingsRepository) Save(ctx context.Context, s entity.Settings) error {
	blob, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := ValidateSettingsJSON(blob); err != nil {
		return err
	}
	query, args := entsql.Dialect(r.db.Dialect()).
		Insert(KVTable.Name).
		Columns("key", "value", "updated_at").
		Values(entity.SettingsKey, string(blob), time.Now().UnixMilli()).
		OnConflict(entsql.ConflictColumns("key"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := r.db.Driver.DB().ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to save settings", "error", err)
		return fmt.Errorf("%w: save settings: %w", common.ErrDatabase, err)
	}
	r.logger.Info("settings saved", "auto_send", s.AutoSend, "google", s.GoogleUser != nil)
	return nil
}

// SettingsJSONSchema describes the persisted settings blob.
func SettingsJSONSchema() map[string]any {
	str := map[string]any{"type": "string"}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"autoSend":    map[string]any{"type": "boolean"},
			"userName":    map[string]any{"type": "string", "maxLength": 200},
			"userRole":    map[string]any{"type": "string", "maxLength": 200},
			"userCompany": map[string]any{"type": "string", "maxLength": 200},
			"googleUser": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":        str,
					"email":       str,
					"picture":     str,
					"accessToken": str,
				},
				"required": []string{"email", "accessToken"},
			},
		},
	}
}

var (
	settingsSchemaOnce sync.Once
	settingsSchema     *jsonschema.Schema
	settingsSchemaErr  error
)

func compiledSettingsSchema() (*jsonschema.Schema, error) {
	settingsSchemaOnce.Do(func() {
		b, err := json.Marshal(SettingsJSONSchema())
		if err != nil {
			settingsSchemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("settings.json", bytes.NewReader(b)); err != nil {
			settingsSchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		settingsSchema, settingsSchemaErr = compiler.Compile("settings.json")
	})
	return settingsSchema, settingsSchemaErr
}

// ValidateSettingsJSON checks a raw settings blob. Mismatches are validation errors.
func ValidateSettingsJSON(data []byte) error {
	schema, err := compiledSettingsSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return common.NewAppError("VALIDATION_ERROR", "settings are not valid JSON", errors.Join(common.ErrValidation, err))
	}
	if err := schema.Validate(v); err != nil {
		return common.NewAppError("VALIDATION_ERROR", "settings do not match schema", errors.Join(common.ErrValidation, err))
	}
	return nil
}
