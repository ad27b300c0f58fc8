package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/swiftscan/constants"
	"github.com/joseph-ayodele/swiftscan/internal/common"
	"github.com/joseph-ayodele/swiftscan/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "history.db")
	db, err := Open(ctx, Config{Driver: DriverSQLite, DSN: dsn}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db, nil) })
	require.NoError(t, Migrate(ctx, db))
	return db
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"}, nil)
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, HealthCheck(context.Background(), db, time.Second, nil))
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, Migrate(context.Background(), db))
}

func TestScanRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewScanRepository(openTestDB(t), nil)

	draft := &entity.Draft{Subject: "Great meeting you, Jane", Body: "Hi Jane,\n\nThanks."}
	rec := entity.NewScanRecord(entity.Contact{
		Name:    "Jane Doe",
		Email:   "jane@acme.com",
		Role:    "CEO",
		Company: "Acme Inc",
		Phone:   "555-123-4567",
		RawData: "Jane Doe\nCEO",
	}, draft, "data:image/png;base64,AAAA", constants.ScanStatusSentGmail)
	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestScanRepository_NoDraft(t *testing.T) {
	ctx := context.Background()
	repo := NewScanRepository(openTestDB(t), nil)

	rec := entity.NewScanRecord(entity.Contact{Name: "Sam"}, nil, "", constants.ScanStatusScanned)
	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got.EmailDraft)
	assert.Empty(t, got.ImageURI)
	assert.Equal(t, constants.ScanStatusScanned, got.Status)
}

func TestScanRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewScanRepository(openTestDB(t), nil)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	var ids []uuid.UUID
	for i := range 3 {
		rec := entity.NewScanRecord(entity.Contact{Name: "c"}, nil, "", constants.ScanStatusDrafted)
		rec.Timestamp = base + int64(i)*1000
		require.NoError(t, repo.Create(ctx, rec))
		ids = append(ids, rec.ID)
	}

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[1], all[1].ID)
	assert.Equal(t, ids[0], all[2].ID)

	two, err := repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestScanRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewScanRepository(openTestDB(t), nil)

	rec := entity.NewScanRecord(entity.Contact{Name: "Sam"}, nil, "", constants.ScanStatusDrafted)
	require.NoError(t, repo.Create(ctx, rec))

	require.NoError(t, repo.UpdateStatus(ctx, rec.ID, constants.ScanStatusSentManual))
	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.ScanStatusSentManual, got.Status)

	err = repo.UpdateStatus(ctx, rec.ID, "archived")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	require.NoError(t, repo.Delete(ctx, rec.ID))
	_, err = repo.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, rec.ID), common.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, uuid.New(), constants.ScanStatusSentGmail), common.ErrNotFound)
}

func TestSettingsRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(openTestDB(t), nil)

	s, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultSettings(), s)
	assert.True(t, s.NeedsOnboarding())

	want := entity.Settings{AutoSend: true, UserName: "Alex", UserRole: "Founder", UserCompany: "Acme"}
	require.NoError(t, repo.Save(ctx, want))
	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// upsert overwrites the single settings row
	want.SignIn(entity.GoogleUser{Name: "Alex G", Email: "alex@gmail.com", AccessToken: "tok"})
	require.NoError(t, repo.Save(ctx, want))
	got, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "tok", got.AccessToken())
}

func TestValidateSettingsJSON(t *testing.T) {
	tests := []struct {
		name    string
		blob    string
		wantErr bool
	}{
		{"empty object", `{}`, false},
		{"full", `{"autoSend":true,"userName":"A","googleUser":{"email":"a@b.co","accessToken":"t"}}`, false},
		{"autoSend wrong type", `{"autoSend":"yes"}`, true},
		{"userName wrong type", `{"userName":42}`, true},
		{"google user missing token", `{"googleUser":{"email":"a@b.co"}}`, true},
		{"not an object", `[]`, true},
		{"not json", `{`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSettingsJSON([]byte(tt.blob))
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}
