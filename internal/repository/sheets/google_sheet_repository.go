package sheets

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/kitchenstock/internal/config"
	"github.com/mamadbah2/kitchenstock/internal/domain/models"
)

const reportRange = "Reports!A:E"

// RowWriter appends a row to a sheet range.
type RowWriter interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
}

// GoogleSheetRepository appends rows through the Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Sheets-backed writer.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// WriteRow appends the provided values to the supplied sheet range.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}
	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}

// ReportSheet writes monthly reports as spreadsheet rows.
type ReportSheet struct {
	writer RowWriter
}

// NewReportSheet wraps a row writer.
func NewReportSheet(writer RowWriter) *ReportSheet {
	return &ReportSheet{writer: writer}
}

// SaveMonthlyReport appends one row: period, servings, portions, per-recipe breakdown, low-stock count.
func (s *ReportSheet) SaveMonthlyReport(ctx context.Context, report models.MonthlyReport) error {
	return s.writer.WriteRow(ctx, reportRange, ReportRow(report))
}

// ReportRow renders a report as sheet cells.
func ReportRow(report models.MonthlyReport) []interface{} {
	names := make([]string, 0, len(report.PortionsByRecipe))
	for name := range report.PortionsByRecipe {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %d", name, report.PortionsByRecipe[name]))
	}

	return []interface{}{
		fmt.Sprintf("%d-%02d", report.Year, int(report.Month)),
		report.Servings,
		report.TotalPortions,
		strings.Join(parts, "; "),
		len(report.LowStock),
	}
}
