package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/swiftscan/internal/entity"
	"github.com/joseph-ayodele/swiftscan/internal/repository"
)

const sheet = "History"

var headers = []string{
	"Scanned At",
	"Name",
	"Email",
	"Phone",
	"Role",
	"Company",
	"Status",
	"Subject",
	"Body",
}

// Service produces XLSX bytes for history exports.
type Service struct {
	scans  repository.ScanRepository
	logger *slog.Logger
}

func NewService(scans repository.ScanRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{scans: scans, logger: logger}
}

// ExportHistoryXLSX returns a workbook with the newest `limit` scans, newest first.
// limit <= 0 uses the repository default.
func (s *Service) ExportHistoryXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	recs, err := s.scans.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	buf, err := Workbook(recs)
	if err != nil {
		return nil, err
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"bytes", len(buf),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf, nil
}

// Workbook renders records into a single-sheet XLSX file.
func Workbook(recs []*entity.ScanRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, style)
	}

	for i, r := range recs {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, r.Time().Format("2006-01-02 15:04"))
		write(2, r.Contact.Name)
		write(3, r.Contact.Email)
		write(4, r.Contact.Phone)
		write(5, r.Contact.Role)
		write(6, r.Contact.Company)
		write(7, string(r.Status))
		if r.EmailDraft != nil {
			write(8, r.EmailDraft.Subject)
			write(9, truncate(r.EmailDraft.Body, 500))
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 18) // date
	_ = f.SetColWidth(sheet, "B", "C", 28) // name, email
	_ = f.SetColWidth(sheet, "D", "G", 18)
	_ = f.SetColWidth(sheet, "H", "H", 36)
	_ = f.SetColWidth(sheet, "I", "I", 80)
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
