package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/kitchenstock/internal/config"
	"github.com/mamadbah2/kitchenstock/internal/domain/models"
	whatsappclient "github.com/mamadbah2/kitchenstock/pkg/clients/whatsapp"
)

type fakeStock []models.IngredientStock

func (f fakeStock) LowStock() []models.IngredientStock { return f }

type fakeReporter struct {
	at time.Time
}

func (f *fakeReporter) MonthlyReport(now time.Time) models.MonthlyReport {
	f.at = now
	return models.MonthlyReport{Year: 2024, Month: time.May, Servings: 3, TotalPortions: 12}
}

type fakePublisher struct {
	mu   sync.Mutex
	envs []models.Envelope
}

func (f *fakePublisher) Publish(_ context.Context, env models.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.envs = append(f.envs, env)
	return nil
}

type fakeArchive struct {
	saved []models.MonthlyReport
	err   error
}

func (f *fakeArchive) SaveMonthlyReport(_ context.Context, report models.MonthlyReport) error {
	f.saved = append(f.saved, report)
	return f.err
}

type fakeAlerts struct {
	reqs []whatsappclient.SendTextMessageRequest
}

func (f *fakeAlerts) SendTextMessage(_ context.Context, req whatsappclient.SendTextMessageRequest) (*whatsappclient.SendTextMessageResponse, error) {
	f.reqs = append(f.reqs, req)
	return &whatsappclient.SendTextMessageResponse{}, nil
}

func testConfig() config.ReportingConfig {
	return config.ReportingConfig{LowStockCron: "0 */6 * * *", MonthlyReportCron: "0 0 1 * *", Timezone: "UTC"}
}

func TestNewScheduler_RejectsBadSchedules(t *testing.T) {
	cfg := testConfig()
	cfg.LowStockCron = "every now and then"
	_, err := NewScheduler(cfg, fakeStock{}, &fakeReporter{}, &fakePublisher{}, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Timezone = "Mars/Olympus"
	_, err = NewScheduler(cfg, fakeStock{}, &fakeReporter{}, &fakePublisher{}, nil)
	assert.Error(t, err)
}

func TestScheduler_SweepLowStock(t *testing.T) {
	items := fakeStock{
		{ID: 1, Name: "Rice", Quantity: 40, Unit: models.UnitGram, Threshold: 500, Status: models.StatusLow},
		{ID: 2, Name: "Oil", Quantity: 0, Unit: models.UnitLiter, Threshold: 1, Status: models.StatusOutOfStock},
	}
	pub := &fakePublisher{}
	alerts := &fakeAlerts{}
	s, err := NewScheduler(testConfig(), items, &fakeReporter{}, pub, nil, WithAlerts(alerts, "224600000000"))
	require.NoError(t, err)

	assert.Equal(t, 2, s.SweepLowStock(context.Background()))

	require.Len(t, pub.envs, 1)
	assert.Equal(t, models.EventInventoryLowStock, pub.envs[0].Type)
	p, err := pub.envs[0].Payload()
	require.NoError(t, err)
	low := p.(models.LowStockPayload)
	assert.Equal(t, 2, low.Count)
	assert.Equal(t, "Oil", low.Items[1].Name)

	require.Len(t, alerts.reqs, 1)
	assert.Equal(t, "224600000000", alerts.reqs[0].To)
	assert.Contains(t, alerts.reqs[0].Body, "Rice: 40 g")
}

func TestScheduler_SweepLowStockNothingToReport(t *testing.T) {
	pub := &fakePublisher{}
	alerts := &fakeAlerts{}
	s, err := NewScheduler(testConfig(), fakeStock{}, &fakeReporter{}, pub, nil, WithAlerts(alerts, "x"))
	require.NoError(t, err)

	assert.Zero(t, s.SweepLowStock(context.Background()))
	assert.Empty(t, pub.envs)
	assert.Empty(t, alerts.reqs)
}

func TestScheduler_GenerateMonthlyReport(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	reporter := &fakeReporter{}
	pub := &fakePublisher{}
	good := &fakeArchive{}
	bad := &fakeArchive{err: errors.New("unreachable")}

	cfg := testConfig()
	cfg.Timezone = "Africa/Conakry"
	s, err := NewScheduler(cfg, fakeStock{}, reporter, pub, nil,
		WithArchives(bad, good), WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	report := s.GenerateMonthlyReport(context.Background())
	assert.Equal(t, 12, report.TotalPortions)
	assert.Equal(t, "Africa/Conakry", reporter.at.Location().String())
	assert.Len(t, bad.saved, 1)
	assert.Len(t, good.saved, 1, "one failing archive does not stop the others")

	require.Len(t, pub.envs, 1)
	assert.Equal(t, models.EventReportGenerated, pub.envs[0].Type)
	assert.Equal(t, "Servings 2024-05: 12 portions across 3 servings.", pub.envs[0].Message)
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := NewScheduler(testConfig(), fakeStock{}, &fakeReporter{}, &fakePublisher{}, nil)
	require.NoError(t, err)
	s.Start()
	s.Stop()
}
