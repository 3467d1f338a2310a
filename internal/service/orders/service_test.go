package orders

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
	"github.com/mamadbah2/kitchenstock/internal/service/stock"
)

type recordingPublisher struct {
	mu   sync.Mutex
	envs []models.Envelope
}

func (p *recordingPublisher) Publish(_ context.Context, env models.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envs = append(p.envs, env)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.envs))
	for _, env := range p.envs {
		out = append(out, env.Type)
	}
	return out
}

func newOrders(t *testing.T) (*Service, *stock.Ledger, *recordingPublisher) {
	t.Helper()
	ledger := stock.NewLedger(nil)
	_, err := ledger.Create(models.IngredientStock{ID: 1, Name: "Oil", Quantity: 0, Unit: models.UnitLiter, Threshold: 2})
	require.NoError(t, err)
	pub := &recordingPublisher{}
	return NewService(stock.NewService(ledger, pub, nil), pub, nil), ledger, pub
}

func TestService_CreateIsPendingAndAnnounced(t *testing.T) {
	svc, _, pub := newOrders(t)
	actor := models.Actor{ID: 5, Name: "Mo", Role: models.RoleManager}

	order, err := svc.Create(context.Background(), 1, 4.5, actor)
	require.NoError(t, err)
	assert.Equal(t, int64(1), order.ID)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, "Oil", order.IngredientName)
	assert.Equal(t, models.UnitLiter, order.Unit)
	assert.Equal(t, int64(5), order.CreatedBy)

	require.Len(t, pub.envs, 1)
	env := pub.envs[0]
	assert.Equal(t, models.EventOrderCreated, env.Type)
	assert.Equal(t, "Mo ordered 4.5 l of Oil", env.Message)
	require.NotNil(t, env.User)
	p, err := env.Payload()
	require.NoError(t, err)
	payload := p.(models.OrderPayload)
	assert.Equal(t, int64(1), payload.ID)
	assert.Equal(t, 4.5, payload.Quantity)
	assert.Equal(t, "Pending", payload.Status)
}

func TestService_CreateRejectsBadInput(t *testing.T) {
	svc, _, pub := newOrders(t)

	_, err := svc.Create(context.Background(), 1, 0, models.Actor{})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.Create(context.Background(), 99, 1, models.Actor{})
	assert.ErrorIs(t, err, stock.ErrNotFound)
	assert.Empty(t, pub.envs)
	assert.Empty(t, svc.List())
}

func TestService_DeliveredAddsStockOnce(t *testing.T) {
	svc, ledger, pub := newOrders(t)
	ctx := context.Background()
	actor := models.Actor{ID: 1, Name: "Admin", Role: models.RoleAdmin}

	order, err := svc.Create(ctx, 1, 3, actor)
	require.NoError(t, err)

	approved, err := svc.UpdateStatus(ctx, order.ID, models.OrderApproved, actor)
	require.NoError(t, err)
	assert.Equal(t, models.OrderApproved, approved.Status)
	oil, err := ledger.Get(1)
	require.NoError(t, err)
	assert.Zero(t, oil.Quantity, "approval alone does not touch stock")

	delivered, err := svc.UpdateStatus(ctx, order.ID, models.OrderDelivered, actor)
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, delivered.Status)

	oil, err = ledger.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, oil.Quantity)
	assert.Equal(t, models.StatusAvailable, oil.Status)

	_, err = svc.UpdateStatus(ctx, order.ID, models.OrderDelivered, actor)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	oil, err = ledger.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, oil.Quantity, "a delivered order is never applied twice")

	assert.Equal(t, []string{
		models.EventOrderCreated,
		models.EventOrderStatusUpdate,
		models.EventInventoryUpdated,
		models.EventOrderStatusUpdate,
	}, pub.types())
}

func TestService_UpdateStatusErrors(t *testing.T) {
	svc, ledger, _ := newOrders(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, 1, 2, models.Actor{})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, order.ID, "Lost", models.Actor{})
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.UpdateStatus(ctx, 42, models.OrderApproved, models.Actor{})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.UpdateStatus(ctx, order.ID, models.OrderPending, models.Actor{})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, order.ID, models.OrderRejected, models.Actor{})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, order.ID, models.OrderDelivered, models.Actor{})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	oil, err := ledger.Get(1)
	require.NoError(t, err)
	assert.Zero(t, oil.Quantity)
}

func TestService_ConcurrentDeliveryAppliesOnce(t *testing.T) {
	svc, ledger, _ := newOrders(t)
	ctx := context.Background()
	order, err := svc.Create(ctx, 1, 2, models.Actor{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.UpdateStatus(ctx, order.ID, models.OrderDelivered, models.Actor{})
		}()
	}
	wg.Wait()

	oil, err := ledger.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, oil.Quantity)
}

func TestService_ListNewestFirst(t *testing.T) {
	svc, _, _ := newOrders(t)
	for i := 1; i <= 3; i++ {
		_, err := svc.Create(context.Background(), 1, float64(i), models.Actor{})
		require.NoError(t, err)
	}

	list := svc.List()
	require.Len(t, list, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{list[0].ID, list[1].ID, list[2].ID})

	got, err := svc.Get(2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Quantity)
}

func TestOrderStatus_Transitions(t *testing.T) {
	assert.True(t, models.OrderPending.CanBecome(models.OrderDelivered))
	assert.True(t, models.OrderApproved.CanBecome(models.OrderRejected))
	assert.False(t, models.OrderApproved.CanBecome(models.OrderPending))
	assert.False(t, models.OrderDelivered.CanBecome(models.OrderRejected))
	assert.False(t, models.OrderRejected.CanBecome(models.OrderApproved))
	assert.False(t, models.OrderStatus("Lost").Valid())
}
