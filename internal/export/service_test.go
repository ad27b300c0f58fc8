package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/swiftscan/constants"
	"github.com/joseph-ayodele/swiftscan/internal/entity"
)

type listOnly struct {
	recs  []*entity.ScanRecord
	limit int
}

func (l *listOnly) Create(context.Context, *entity.ScanRecord) error { return nil }
func (l *listOnly) Get(context.Context, uuid.UUID) (*entity.ScanRecord, error) {
	return nil, nil
}
func (l *listOnly) List(_ context.Context, limit int) ([]*entity.ScanRecord, error) {
	l.limit = limit
	return l.recs, nil
}
func (l *listOnly) UpdateStatus(context.Context, uuid.UUID, constants.ScanStatus) error { return nil }
func (l *listOnly) Delete(context.Context, uuid.UUID) error                          { return nil }

func TestExportHistoryXLSX(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC).UnixMilli()
	repo := &listOnly{recs: []*entity.ScanRecord{
		{
			ID:         uuid.New(),
			Timestamp:  ts,
			Contact:    entity.Contact{Name: "Jane Doe", Email: "jane@acme.com", Company: "Acme Inc"},
			EmailDraft: &entity.Draft{Subject: "Great meeting you - Jane Doe", Body: "Hi Jane,"},
			Status:     constants.ScanStatusSentGmail,
		},
		{
			ID:        uuid.New(),
			Timestamp: ts,
			Contact:   entity.Contact{Name: "Bob"},
			Status:    constants.ScanStatusScanned,
		},
	}}

	buf, err := NewService(repo, nil).ExportHistoryXLSX(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 50, repo.limit)

	f, err := excelize.OpenReader(bytes.NewReader(buf))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, []string{"2024-03-09 14:30", "Jane Doe", "jane@acme.com", "", "", "Acme Inc", "sent_gmail", "Great meeting you - Jane Doe", "Hi Jane,"}, rows[1])
	assert.Equal(t, "Bob", rows[2][1])
	assert.Equal(t, "scanned", rows[2][6])
}

func TestWorkbook_Empty(t *testing.T) {
	buf, err := Workbook(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{sheet}, f.GetSheetList())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcd", 3))
	assert.Equal(t, "héllo", truncate("héllo", 5))
}
