package question

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const exportSheet = "Questions"

var exportHeaders = []string{
	"ID", "Created At", "Owner", "Title", "Category", "Status",
	"Urgent", "Private", "Visible", "Approved", "Approved By", "Answered At", "Answers",
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Export writes every question, with its answer count, as an XLSX workbook.
func (s *ServiceImplementation) Export(ctx context.Context, w io.Writer) error {
	questions, err := s.repo.FindAllForExport(ctx)
	if err != nil {
		return err
	}

	names := map[uuid.UUID]string{}
	if s.users != nil && len(questions) > 0 {
		ids := make([]uuid.UUID, 0, len(questions))
		for _, q := range questions {
			ids = append(ids, q.UserID)
		}
		if resolved, err := s.users.DisplayNames(ctx, ids); err == nil {
			names = resolved
		} else {
			s.logger.Warn("Export continues without owner names", zap.Error(err))
		}
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(exportSheet, 1, 1, style)
	}

	for i := range questions {
		q := &questions[i]
		created := q.CreatedAt
		row := []interface{}{
			q.ID.String(),
			formatTime(&created),
			names[q.UserID],
			q.Title,
			q.Category,
			string(q.Status),
			yesNo(q.IsUrgent),
			yesNo(q.IsPrivate),
			yesNo(q.IsVisible),
			yesNo(q.IsApproved),
			derefString(q.ApprovedBy),
			formatTime(q.AnsweredAt),
			len(q.Answers),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(exportSheet, "D", "D", 50); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
