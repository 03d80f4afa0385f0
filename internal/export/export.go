package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fairway/internal/domain"
	"fairway/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter writes reservation lists to XLSX files for operators.
type Exporter struct {
	store  domain.ReservationStore
	path   string
	logger *zerolog.Logger
}

func NewExporter(store domain.ReservationStore, path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{
		store:  store,
		path:   path,
		logger: logger,
	}
}

var exportHeaders = []string{
	"Date", "Time", "Lane", "Name", "Phone", "Email", "Club", "Gender", "Age", "Reference", "Booked at",
}

// ExportRange writes every reservation in [startDate, endDate] to a new XLSX
// file and returns its path.
func (e *Exporter) ExportRange(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	reservations, err := e.store.GetReservationsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("error getting reservations: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Reservations"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s",
		startDate.Format(models.DateLayout), endDate.Format(models.DateLayout)))

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
	}

	for row, r := range reservations {
		values := []interface{}{
			r.Date.Format(models.DateLayout),
			r.StartTime,
			string(r.Lane),
			r.Name,
			r.Phone,
			r.Email,
			r.Club,
			r.Gender,
			r.Age,
			r.Reference,
			r.CreatedAt.Format(time.RFC3339),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+3)
			_ = f.SetCellValue(sheetName, cell, value)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "K", 18)

	lastCol, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	_ = f.MergeCell(sheetName, "A1", lastCol)

	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", style)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("reservations_%s_to_%s.xlsx",
		startDate.Format(models.DateLayout), endDate.Format(models.DateLayout))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("rows", len(reservations)).Msg("export file created")
	return filePath, nil
}
