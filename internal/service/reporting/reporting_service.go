package reporting

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
)

const dateLayout = "2006-01-02"

// HistorySource exposes recorded servings.
type HistorySource interface {
	HistoryBetween(start, end time.Time) []models.ServingRecord
}

// StockSource exposes the ingredients needing attention.
type StockSource interface {
	LowStock() []models.IngredientStock
}

// Service builds serving reports and stock summaries.
type Service struct {
	history HistorySource
	stock   StockSource
	logger  *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(history HistorySource, stock StockSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{history: history, stock: stock, logger: logger}
}

// MonthlyReport aggregates the calendar month before now, in now's location.
func (s *Service) MonthlyReport(now time.Time) models.MonthlyReport {
	start, end := previousMonth(now)
	records := s.history.HistoryBetween(start, end)

	report := models.MonthlyReport{
		Year:             start.Year(),
		Month:            start.Month(),
		Servings:         len(records),
		PortionsByRecipe: make(map[string]int),
		LowStock:         s.stock.LowStock(),
		GeneratedAt:      now.UTC(),
	}
	for _, rec := range records {
		report.TotalPortions += rec.Portions
		report.PortionsByRecipe[rec.RecipeName] += rec.Portions
	}

	s.logger.Info("monthly report generated",
		zap.String("from", start.Format(dateLayout)),
		zap.String("to", end.Format(dateLayout)),
		zap.Int("servings", report.Servings),
		zap.Int("portions", report.TotalPortions))
	return report
}

// LowStockSummary renders the alert text for items, or "" when none need attention.
func LowStockSummary(items []models.IngredientStock) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Low stock alert: %d ingredient(s) need restocking.", len(items))
	for _, item := range items {
		fmt.Fprintf(&b, "\n- %s: %s %s (threshold %s) [%s]",
			item.Name, formatQty(item.Quantity), item.Unit, formatQty(item.Threshold), item.Status)
	}
	return b.String()
}

// MonthlySummary renders a report as a short text message.
func MonthlySummary(report models.MonthlyReport) string {
	if report.Servings == 0 {
		return fmt.Sprintf("Servings %d-%02d: no meals served.", report.Year, int(report.Month))
	}
	return fmt.Sprintf("Servings %d-%02d: %d portions across %d servings.",
		report.Year, int(report.Month), report.TotalPortions, report.Servings)
}

func previousMonth(now time.Time) (time.Time, time.Time) {
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return end.AddDate(0, -1, 0), end
}

func formatQty(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}
