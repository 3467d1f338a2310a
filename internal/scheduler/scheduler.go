package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/kitchenstock/internal/config"
	"github.com/mamadbah2/kitchenstock/internal/domain/models"
	"github.com/mamadbah2/kitchenstock/internal/service/reporting"
	whatsappclient "github.com/mamadbah2/kitchenstock/pkg/clients/whatsapp"
)

const jobTimeout = 2 * time.Minute

// Publisher emits envelopes on the event pipeline.
type Publisher interface {
	Publish(ctx context.Context, env models.Envelope) error
}

// Archive persists a monthly report.
type Archive interface {
	SaveMonthlyReport(ctx context.Context, report models.MonthlyReport) error
}

// Reporter builds monthly reports.
type Reporter interface {
	MonthlyReport(now time.Time) models.MonthlyReport
}

// StockSource exposes the ingredients needing attention.
type StockSource interface {
	LowStock() []models.IngredientStock
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	cfg       config.ReportingConfig
	location  *time.Location
	stock     StockSource
	reporter  Reporter
	publisher Publisher
	archives  []Archive
	alerts    whatsappclient.Client
	recipient string
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures optional collaborators.
type Option func(*Scheduler)

// WithArchives adds report archives.
func WithArchives(archives ...Archive) Option {
	return func(s *Scheduler) { s.archives = append(s.archives, archives...) }
}

// WithAlerts enables WhatsApp low-stock alerts to recipient.
func WithAlerts(client whatsappclient.Client, recipient string) Option {
	return func(s *Scheduler) {
		s.alerts = client
		s.recipient = recipient
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.ReportingConfig, stock StockSource, reporter Reporter, publisher Publisher, logger *zap.Logger, opts ...Option) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		cfg:       cfg,
		location:  loc,
		stock:     stock,
		reporter:  reporter,
		publisher: publisher,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := s.cron.AddFunc(cfg.LowStockCron, s.runLowStockSweep); err != nil {
		return nil, fmt.Errorf("schedule low-stock sweep %q: %w", cfg.LowStockCron, err)
	}
	if _, err := s.cron.AddFunc(cfg.MonthlyReportCron, s.runMonthlyReport); err != nil {
		return nil, fmt.Errorf("schedule monthly report %q: %w", cfg.MonthlyReportCron, err)
	}
	return s, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler",
		zap.String("low_stock", s.cfg.LowStockCron),
		zap.String("monthly_report", s.cfg.MonthlyReportCron),
		zap.String("timezone", s.location.String()))
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// SweepLowStock publishes the low-stock list and alerts when any item needs attention.
// It returns the number of items reported.
func (s *Scheduler) SweepLowStock(ctx context.Context) int {
	items := s.stock.LowStock()
	if len(items) == 0 {
		s.logger.Debug("low-stock sweep found nothing")
		return 0
	}

	env, err := models.NewEnvelope(models.EventInventoryLowStock,
		fmt.Sprintf("%d ingredient(s) low or out of stock", len(items)),
		models.LowStockPayload{Count: len(items), Items: items})
	if err != nil {
		s.logger.Error("failed to build low-stock envelope", zap.Error(err))
	} else if err := s.publisher.Publish(ctx, env); err != nil {
		s.logger.Error("failed to publish low-stock envelope", zap.Error(err))
	}

	if s.alerts != nil {
		req := whatsappclient.SendTextMessageRequest{To: s.recipient, Body: reporting.LowStockSummary(items)}
		if _, err := s.alerts.SendTextMessage(ctx, req); err != nil {
			s.logger.Error("failed to send low-stock alert", zap.Error(err))
		} else {
			s.logger.Info("low-stock alert sent", zap.Int("items", len(items)))
		}
	}
	return len(items)
}

// GenerateMonthlyReport builds the previous month's report, archives and publishes it.
func (s *Scheduler) GenerateMonthlyReport(ctx context.Context) models.MonthlyReport {
	report := s.reporter.MonthlyReport(s.now().In(s.location))

	for _, archive := range s.archives {
		if err := archive.SaveMonthlyReport(ctx, report); err != nil {
			s.logger.Error("failed to archive monthly report", zap.Error(err))
		}
	}

	env, err := models.NewEnvelope(models.EventReportGenerated, reporting.MonthlySummary(report), report)
	if err != nil {
		s.logger.Error("failed to build report envelope", zap.Error(err))
		return report
	}
	if err := s.publisher.Publish(ctx, env); err != nil {
		s.logger.Error("failed to publish report envelope", zap.Error(err))
	}
	return report
}

func (s *Scheduler) runLowStockSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	s.SweepLowStock(ctx)
}

func (s *Scheduler) runMonthlyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	s.GenerateMonthlyReport(ctx)
}
