package stock

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
)

var (
	// ErrNotFound indicates the ingredient is not tracked by the ledger.
	ErrNotFound = errors.New("ingredient not found")
	// ErrInsufficientStock indicates a deduction larger than the on-hand quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidAmount indicates a negative, zero or non-finite amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidIngredient indicates an ingredient definition missing its id, name or unit.
	ErrInvalidIngredient = errors.New("invalid ingredient")
	// ErrDuplicate indicates an ingredient with the same id or name already exists.
	ErrDuplicate = errors.New("ingredient already exists")
)

// Ledger is the authoritative record of on-hand ingredient quantities.
// A single mutex guards every read and mutation. Arithmetic on quantities is
// done in decimal so that 0.7 kg less 70 x 0.01 kg is exactly zero.
type Ledger struct {
	mu     sync.Mutex
	items  map[int64]*models.IngredientStock
	logger *zap.Logger
	now    func() time.Time
}

// NewLedger builds an empty ledger.
func NewLedger(logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		items:  make(map[int64]*models.IngredientStock),
		logger: logger,
		now:    time.Now,
	}
}

// Create registers a new ingredient. Status is derived from quantity and threshold.
func (l *Ledger) Create(item models.IngredientStock) (models.IngredientStock, error) {
	if item.ID <= 0 || strings.TrimSpace(item.Name) == "" {
		return models.IngredientStock{}, fmt.Errorf("ingredient needs an id and a name: %w", ErrInvalidIngredient)
	}
	if !validAmount(item.Quantity, true) || !validAmount(item.Threshold, true) {
		return models.IngredientStock{}, ErrInvalidAmount
	}
	if !item.Unit.Valid() {
		return models.IngredientStock{}, fmt.Errorf("unsupported unit %q: %w", item.Unit, ErrInvalidIngredient)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.items[item.ID]; exists {
		return models.IngredientStock{}, fmt.Errorf("ingredient %d: %w", item.ID, ErrDuplicate)
	}
	for _, existing := range l.items {
		if strings.EqualFold(existing.Name, item.Name) {
			return models.IngredientStock{}, fmt.Errorf("ingredient %q: %w", item.Name, ErrDuplicate)
		}
	}

	stored := item
	l.touch(&stored)
	l.items[stored.ID] = &stored
	return stored, nil
}

// Get returns a copy of the ingredient's current stock.
func (l *Ledger) Get(id int64) (models.IngredientStock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[id]
	if !ok {
		return models.IngredientStock{}, fmt.Errorf("ingredient %d: %w", id, ErrNotFound)
	}
	return *item, nil
}

// List returns every ingredient ordered by id.
func (l *Ledger) List() []models.IngredientStock {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.IngredientStock, 0, len(l.items))
	for _, item := range l.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LowStock returns ingredients whose status is Low or Out of Stock.
func (l *Ledger) LowStock() []models.IngredientStock {
	var low []models.IngredientStock
	for _, item := range l.List() {
		if item.Status != models.StatusAvailable {
			low = append(low, item)
		}
	}
	return low
}

// Deduct removes amount from the ingredient. The call is all-or-nothing.
func (l *Ledger) Deduct(id int64, amount float64) (models.IngredientStock, error) {
	if !validAmount(amount, false) {
		return models.IngredientStock{}, ErrInvalidAmount
	}
	var updated models.IngredientStock
	err := l.Transact(func(tx *Tx) error {
		var err error
		updated, err = tx.Deduct(id, decimal.NewFromFloat(amount))
		return err
	})
	return updated, err
}

// Add increases the ingredient's quantity, typically for a delivery.
func (l *Ledger) Add(id int64, amount float64) (models.IngredientStock, error) {
	if !validAmount(amount, false) {
		return models.IngredientStock{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[id]
	if !ok {
		return models.IngredientStock{}, fmt.Errorf("ingredient %d: %w", id, ErrNotFound)
	}
	item.Quantity = decimal.NewFromFloat(item.Quantity).Add(decimal.NewFromFloat(amount)).InexactFloat64()
	l.touch(item)
	return *item, nil
}

// Transact runs fn while holding the ledger lock. Deductions made through the
// Tx are staged and only applied when fn returns nil.
func (l *Ledger) Transact(fn func(tx *Tx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx := &Tx{ledger: l, staged: make(map[int64]decimal.Decimal)}
	if err := fn(tx); err != nil {
		return err
	}

	for id, quantity := range tx.staged {
		item := l.items[id]
		item.Quantity = quantity.InexactFloat64()
		l.touch(item)
	}
	if len(tx.staged) > 0 {
		l.logger.Debug("ledger transaction committed", zap.Int("ingredients", len(tx.staged)))
	}
	return nil
}

// View runs fn under the ledger lock without committing anything.
func (l *Ledger) View(fn func(tx *Tx)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&Tx{ledger: l, staged: map[int64]decimal.Decimal{}})
}

// touch recomputes status after every mutation.
func (l *Ledger) touch(item *models.IngredientStock) {
	if item.Quantity < 0 {
		item.Quantity = 0
	}
	item.Status = models.DeriveStatus(item.Quantity, item.Threshold)
	item.UpdatedAt = l.now().UTC()
}

// Tx is a view of the ledger valid only inside Transact.
type Tx struct {
	ledger *Ledger
	staged map[int64]decimal.Decimal
}

// Quantity returns the staged quantity of an ingredient.
func (tx *Tx) Quantity(id int64) (decimal.Decimal, bool) {
	if q, ok := tx.staged[id]; ok {
		return q, true
	}
	item, ok := tx.ledger.items[id]
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(item.Quantity), true
}

// Get returns the ingredient as it would look if the transaction committed now.
func (tx *Tx) Get(id int64) (models.IngredientStock, bool) {
	item, ok := tx.ledger.items[id]
	if !ok {
		return models.IngredientStock{}, false
	}
	out := *item
	if q, staged := tx.staged[id]; staged {
		out.Quantity = q.InexactFloat64()
		out.Status = models.DeriveStatus(out.Quantity, out.Threshold)
	}
	return out, true
}

// Deduct stages a deduction. It fails without staging anything when amount exceeds the quantity.
func (tx *Tx) Deduct(id int64, amount decimal.Decimal) (models.IngredientStock, error) {
	if !amount.IsPositive() {
		return models.IngredientStock{}, ErrInvalidAmount
	}
	current, ok := tx.Quantity(id)
	if !ok {
		return models.IngredientStock{}, fmt.Errorf("ingredient %d: %w", id, ErrNotFound)
	}
	if amount.GreaterThan(current) {
		return models.IngredientStock{}, fmt.Errorf("ingredient %d needs %s, has %s: %w", id, amount, current, ErrInsufficientStock)
	}
	tx.staged[id] = current.Sub(amount)
	item, _ := tx.Get(id)
	return item, nil
}

func validAmount(v float64, allowZero bool) bool {
	return models.ValidQuantity(v, allowZero)
}
