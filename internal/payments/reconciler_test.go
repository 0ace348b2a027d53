package payments

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vestia_back_end/internal/inventory"
	"vestia_back_end/internal/models"
	"vestia_back_end/internal/orders"
)

type fakeOrderRepo struct {
	mu     sync.Mutex
	byID   map[gocql.UUID]*models.Order
	broken bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{byID: map[gocql.UUID]*models.Order{}}
}

func (f *fakeOrderRepo) Insert(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) Get(_ context.Context, id gocql.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.byID[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return order, nil
}

func (f *fakeOrderRepo) GetByNumber(_ context.Context, number string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, order := range f.byID {
		if order.OrderNumber == number {
			return order, nil
		}
	}
	return nil, orders.ErrNotFound
}

func (f *fakeOrderRepo) Update(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return assert.AnError
	}
	f.byID[order.ID] = order
	return nil
}

type fakeNotifier struct {
	paid []string
}

func (f *fakeNotifier) OrderPaid(_ context.Context, order *models.Order) {
	f.paid = append(f.paid, order.OrderNumber)
}

type testEnv struct {
	repo       *fakeOrderRepo
	stock      *inventory.MemoryStore
	notifier   *fakeNotifier
	reconciler *Reconciler
}

func newTestEnv() *testEnv {
	repo := newFakeOrderRepo()
	stock := inventory.NewMemoryStore()
	svc := &orders.Service{
		Orders: repo,
		Stock:  inventory.NewLedger(stock),
	}
	notifier := &fakeNotifier{}
	return &testEnv{
		repo:       repo,
		stock:      stock,
		notifier:   notifier,
		reconciler: NewReconciler(repo, svc, notifier),
	}
}

func (e *testEnv) seedOrder(t *testing.T, status string) *models.Order {
	t.Helper()
	variant := &models.Variant{Size: "M", Color: models.Color{Name: "Preto"}}
	order := &models.Order{
		ID:          gocql.TimeUUID(),
		OrderNumber: "PV2608000042",
		Items: []models.OrderItem{{
			ProductID: gocql.TimeUUID(),
			Name:      "Camiseta Básica",
			Variant:   variant,
			Quantity:  2,
			Price:     90,
			Subtotal:  180,
		}},
		Status:  status,
		Payment: models.OrderPayment{Method: models.MethodPix, Status: models.PaymentPending},
	}
	orders.ApplyStatus(order, status, "seed")
	require.NoError(t, e.repo.Insert(context.Background(), order))
	// Stock après réservation checkout.
	e.stock.Set(order.Items[0].ProductID, *variant, 3)
	return order
}

func confirmEvent(order *models.Order) Event {
	return Event{
		Event: "PAYMENT_CONFIRMED",
		Payment: EventPayment{
			ID:                "pay_123",
			Status:            "CONFIRMED",
			Value:             180,
			ExternalReference: order.ID.String(),
		},
	}
}

func TestActionFor(t *testing.T) {
	assert.Equal(t, ActionConfirm, ActionFor("PAYMENT_CONFIRMED"))
	assert.Equal(t, ActionConfirm, ActionFor("PAYMENT_RECEIVED"))
	assert.Equal(t, ActionRefund, ActionFor("PAYMENT_REFUNDED"))
	assert.Equal(t, ActionOverdue, ActionFor("PAYMENT_OVERDUE"))
	assert.Equal(t, ActionCancel, ActionFor("PAYMENT_DELETED"))
	assert.Equal(t, ActionNone, ActionFor("PAYMENT_UPDATED"))
	assert.Equal(t, ActionNone, ActionFor(""))
}

func TestConfirmMarksOrderPaid(t *testing.T) {
	env := newTestEnv()
	order := env.seedOrder(t, models.OrderPending)

	require.NoError(t, env.reconciler.Process(context.Background(), confirmEvent(order)))

	stored, err := env.repo.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, stored.Status)
	assert.Equal(t, models.PaymentPaid, stored.Payment.Status)
	assert.Equal(t, "pay_123", stored.Payment.TransactionID)
	require.NotNil(t, stored.Payment.PaidAt)
	assert.Equal(t, []string{"PV2608000042"}, env.notifier.paid)
}

func TestConfirmIsIdempotent(t *testing.T) {
	env := newTestEnv()
	order := env.seedOrder(t, models.OrderPending)
	evt := confirmEvent(order)

	require.NoError(t, env.reconciler.Process(context.Background(), evt))
	// Doublon CONFIRMED puis le RECEIVED qui suit toujours en PIX.
	require.NoError(t, env.reconciler.Process(context.Background(), evt))
	evt.Event = "PAYMENT_RECEIVED"
	require.NoError(t, env.reconciler.Process(context.Background(), evt))

	stored, err := env.repo.Get(context.Background(), order.ID)
	require.NoError(t, err)

	paidEntries := 0
	for _, change := range stored.StatusHistory {
		if change.Status == models.OrderPaid {
			paidEntries++
		}
	}
	assert.Equal(t, 1, paidEntries)
	assert.Len(t, env.notifier.paid, 1)
}

func TestRefundRestoresStockOnce(t *testing.T) {
	env := newTestEnv()
	order := env.seedOrder(t, models.OrderPending)
	require.NoError(t, env.reconciler.Process(context.Background(), confirmEvent(order)))

	refund := Event{
		Event:   "PAYMENT_REFUNDED",
		Payment: EventPayment{ID: "pay_123", ExternalReference: order.ID.String()},
	}
	require.NoError(t, env.reconciler.Process(context.Background(), refund))

	stored, err := env.repo.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderRefunded, stored.Status)
	assert.Equal(t, models.PaymentRefunded, stored.Payment.Status)
	assert.True(t, stored.StockReleased)

	current, err := env.stock.Stock(context.Background(), order.Items[0].ProductID, *order.Items[0].Variant)
	require.NoError(t, err)
	assert.Equal(t, 5, current)

	// Relivraison du même événement : pas de double crédit.
	require.NoError(t, env.reconciler.Process(context.Background(), refund))
	current, err = env.stock.Stock(context.Background(), order.Items[0].ProductID, *order.Items[0].Variant)
	require.NoError(t, err)
	assert.Equal(t, 5, current)
}

func TestRefundAfterShipmentStillApplies(t *testing.T) {
	env := newTestEnv()
	order := env.seedOrder(t, models.OrderShipped)

	refund := Event{
		Event:   "PAYMENT_REFUNDED",
		Payment: EventPayment{ID: "pay_9", ExternalReference: order.ID.String()},
	}
	require.NoError(t, env.reconciler.Process(context.Background(), refund))

	stored, err := env.repo.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderRefunded, stored.Status)
}

func TestOverdueKeepsOrderPending(t *testing.T) {
	env := newTestEnv()
	order := env.seedOrder(t, models.OrderPending)

	evt := Event{
		Event:   "PAYMENT_OVERDUE",
		Payment: EventPayment{ID: "pay_123", ExternalReference: order.ID.String()},
	}
	require.NoError(t, env.reconciler.Process(context.Background(), evt))

	stored, err := env.repo.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, stored.Status)
	assert.Equal(t, models.PaymentFailed, stored.Payment.Status)

	// Rejouer OVERDUE n'empile pas l'historique.
	before := len(stored.StatusHistory)
	require.NoError(t, env.reconciler.Process(context.Background(), evt))
	stored, _ = env.repo.Get(context.Background(), order.ID)
	assert.Len(t, stored.StatusHistory, before)
}

func TestDeletedCancelsPendingOnly(t *testing.T) {
	env := newTestEnv()
	pending := env.seedOrder(t, models.OrderPending)

	evt := Event{
		Event:   "PAYMENT_DELETED",
		Payment: EventPayment{ID: "pay_123", ExternalReference: pending.ID.String()},
	}
	require.NoError(t, env.reconciler.Process(context.Background(), evt))

	stored, err := env.repo.Get(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, stored.Status)
	assert.True(t, stored.StockReleased)

	// Une commande déjà payée n'est pas annulée par une suppression tardive.
	env2 := newTestEnv()
	paid := env2.seedOrder(t, models.OrderPaid)
	evt.Payment.ExternalReference = paid.ID.String()
	require.NoError(t, env2.reconciler.Process(context.Background(), evt))
	stored, err = env2.repo.Get(context.Background(), paid.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, stored.Status)
}

func TestUnknownOrderIsAcked(t *testing.T) {
	env := newTestEnv()
	evt := Event{
		Event:   "PAYMENT_CONFIRMED",
		Payment: EventPayment{ID: "pay_x", ExternalReference: gocql.TimeUUID().String()},
	}
	assert.NoError(t, env.reconciler.Process(context.Background(), evt))
}

func TestUnparsableReferenceIsAcked(t *testing.T) {
	env := newTestEnv()
	evt := Event{
		Event:   "PAYMENT_CONFIRMED",
		Payment: EventPayment{ID: "pay_x", ExternalReference: "pas-un-uuid"},
	}
	assert.NoError(t, env.reconciler.Process(context.Background(), evt))
}

func TestPersistenceFailureTriggersRedelivery(t *testing.T) {
	env := newTestEnv()
	order := env.seedOrder(t, models.OrderPending)
	env.repo.broken = true

	err := env.reconciler.Process(context.Background(), confirmEvent(order))
	assert.Error(t, err)
}

func TestConfirmKeepsPaidAtStable(t *testing.T) {
	env := newTestEnv()
	order := env.seedOrder(t, models.OrderPending)
	require.NoError(t, env.reconciler.Process(context.Background(), confirmEvent(order)))

	stored, _ := env.repo.Get(context.Background(), order.ID)
	first := *stored.Payment.PaidAt
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, env.reconciler.Process(context.Background(), confirmEvent(order)))
	stored, _ = env.repo.Get(context.Background(), order.ID)
	assert.Equal(t, first, *stored.Payment.PaidAt)
}
