package orders

import (
	"context"
	"sync"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/require"

	"vestia_back_end/internal/inventory"
	"vestia_back_end/internal/models"
	"vestia_back_end/internal/pricing"
)

// fakeOrderRepo : persistance en mémoire pour les tests du service.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[gocql.UUID]*models.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[gocql.UUID]*models.Order)}
}

func (f *fakeOrderRepo) Insert(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) Get(_ context.Context, id gocql.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (f *fakeOrderRepo) GetByNumber(_ context.Context, number string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, order := range f.orders {
		if order.OrderNumber == number {
			cp := *order
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeOrderRepo) Update(_ context.Context, order *models.Order) error {
	return f.Insert(context.Background(), order)
}

type fakeCartStore struct {
	cleared []gocql.UUID
}

func (f *fakeCartStore) Clear(_ context.Context, userID gocql.UUID) error {
	f.cleared = append(f.cleared, userID)
	return nil
}

type testEnv struct {
	svc   *Service
	store *inventory.MemoryStore
	repo  *fakeOrderRepo
	carts *fakeCartStore
}

func newTestEnv() *testEnv {
	store := inventory.NewMemoryStore()
	repo := newFakeOrderRepo()
	carts := &fakeCartStore{}
	svc := &Service{
		Orders:  repo,
		Stock:   inventory.NewLedger(store),
		Pricing: pricing.NewEngine(nil),
		Numbers: NewNumberGenerator(newFakeSequencer()),
		Carts:   carts,
	}
	return &testEnv{svc: svc, store: store, repo: repo, carts: carts}
}

func cartWith(items ...models.CartItem) *models.Cart {
	return &models.Cart{UserID: gocql.TimeUUID(), Items: items}
}

var (
	variantM = models.Variant{Size: "M", Color: models.Color{Name: "preto"}}
	variantG = models.Variant{Size: "G", Color: models.Color{Name: "branco"}}
)

// Scénario de bout en bout : 1 article (prix 100, qty 2, stock 5) + coupon
// fixe de 20 → totaux {200, 0, 20, 180}, stock 3, panier vidé.
func TestCreateOrderEndToEnd(t *testing.T) {
	env := newTestEnv()
	productID := gocql.TimeUUID()
	env.store.Set(productID, variantM, 5)

	crt := cartWith(models.CartItem{
		ProductID: productID,
		StoreID:   gocql.TimeUUID(),
		Name:      "Camiseta básica",
		Variant:   &variantM,
		Quantity:  2,
		Price:     100,
	})
	crt.Coupon = &models.CartCoupon{Code: "FRETE", Discount: 20, Type: models.CouponFixed}

	order, err := env.svc.Create(context.Background(), crt.UserID, crt, models.Address{City: "São Paulo"}, models.MethodPix, "")
	require.NoError(t, err)

	require.Equal(t, 200.0, order.Pricing.Subtotal)
	require.Equal(t, 0.0, order.Pricing.Shipping)
	require.Equal(t, 20.0, order.Pricing.Discount)
	require.Equal(t, 180.0, order.Pricing.Total)

	require.Equal(t, models.OrderPending, order.Status)
	require.Equal(t, models.PaymentPending, order.Payment.Status)
	require.Equal(t, models.MethodPix, order.Payment.Method)
	require.Len(t, order.StatusHistory, 1)
	require.Equal(t, models.OrderPending, order.StatusHistory[0].Status)
	require.NotNil(t, order.Coupon)
	require.Equal(t, "FRETE", order.Coupon.Code)
	require.Regexp(t, `^PV\d{10}$`, order.OrderNumber)

	// Stock décrémenté et frozen snapshot
	stock, _ := env.store.Stock(context.Background(), productID, variantM)
	require.Equal(t, 3, stock)
	require.Equal(t, 200.0, order.Items[0].Subtotal)

	// Panier vidé
	require.Equal(t, []gocql.UUID{crt.UserID}, env.carts.cleared)

	// Persistée
	saved, err := env.repo.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, order.OrderNumber, saved.OrderNumber)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	env := newTestEnv()
	_, err := env.svc.Create(context.Background(), gocql.TimeUUID(), cartWith(), models.Address{}, models.MethodPix, "")
	require.ErrorIs(t, err, ErrEmptyCart)

	_, err = env.svc.Create(context.Background(), gocql.TimeUUID(), nil, models.Address{}, models.MethodPix, "")
	require.ErrorIs(t, err, ErrEmptyCart)
}

// Tout-ou-rien : si la réservation du second article échoue, celle du premier
// est rendue — le stock net du panier entier est inchangé.
func TestCreateOrderPartialReservationRollsBack(t *testing.T) {
	env := newTestEnv()
	first := gocql.TimeUUID()
	second := gocql.TimeUUID()
	env.store.Set(first, variantM, 10)
	env.store.Set(second, variantG, 1)

	crt := cartWith(
		models.CartItem{ProductID: first, Name: "Calça jeans", Variant: &variantM, Quantity: 4, Price: 150},
		models.CartItem{ProductID: second, Name: "Jaqueta", Variant: &variantG, Quantity: 2, Price: 300},
	)

	_, err := env.svc.Create(context.Background(), crt.UserID, crt, models.Address{}, models.MethodBoleto, "")
	require.ErrorIs(t, err, inventory.ErrOutOfStock)

	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	require.Equal(t, "Jaqueta", oos.Product)

	firstStock, _ := env.store.Stock(context.Background(), first, variantM)
	secondStock, _ := env.store.Stock(context.Background(), second, variantG)
	require.Equal(t, 10, firstStock)
	require.Equal(t, 1, secondStock)

	// Rien n'a été persisté ni vidé
	require.Empty(t, env.repo.orders)
	require.Empty(t, env.carts.cleared)
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	env := newTestEnv()
	productID := gocql.TimeUUID()
	env.store.Set(productID, variantM, 5)

	crt := cartWith(models.CartItem{ProductID: productID, Name: "Camiseta", Variant: &variantM, Quantity: 1, Price: 50})
	order, err := env.svc.Create(context.Background(), crt.UserID, crt, models.Address{}, models.MethodPix, "")
	require.NoError(t, err)

	// pending → shipped est illégal
	err = env.svc.UpdateStatus(context.Background(), order, models.OrderShipped, "")
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, models.OrderPending, invalid.From)

	// pending → paid → processing est légal
	require.NoError(t, env.svc.UpdateStatus(context.Background(), order, models.OrderPaid, "Paiement confirmé"))
	require.NoError(t, env.svc.UpdateStatus(context.Background(), order, models.OrderProcessing, ""))
	require.Len(t, order.StatusHistory, 3)
}

// Annuler deux fois ne crédite pas le stock deux fois : le second appel est
// rejeté car le statut n'est plus annulable.
func TestCancelThenCancel(t *testing.T) {
	env := newTestEnv()
	productID := gocql.TimeUUID()
	env.store.Set(productID, variantM, 5)

	crt := cartWith(models.CartItem{ProductID: productID, Name: "Camiseta", Variant: &variantM, Quantity: 3, Price: 40})
	order, err := env.svc.Create(context.Background(), crt.UserID, crt, models.Address{}, models.MethodPix, "")
	require.NoError(t, err)

	stock, _ := env.store.Stock(context.Background(), productID, variantM)
	require.Equal(t, 2, stock)

	require.NoError(t, env.svc.Cancel(context.Background(), order, "mudei de ideia"))
	require.Equal(t, models.OrderCancelled, order.Status)
	require.True(t, order.StockReleased)
	require.Equal(t, "mudei de ideia", order.CancelReason)

	stock, _ = env.store.Stock(context.Background(), productID, variantM)
	require.Equal(t, 5, stock)

	// Second cancel : rejeté, stock intact
	require.ErrorIs(t, env.svc.Cancel(context.Background(), order, "de novo"), ErrCannotCancel)
	stock, _ = env.store.Stock(context.Background(), productID, variantM)
	require.Equal(t, 5, stock)
}

func TestCancelRejectedAfterShipment(t *testing.T) {
	env := newTestEnv()
	productID := gocql.TimeUUID()
	env.store.Set(productID, variantM, 5)

	crt := cartWith(models.CartItem{ProductID: productID, Name: "Camiseta", Variant: &variantM, Quantity: 1, Price: 40})
	order, err := env.svc.Create(context.Background(), crt.UserID, crt, models.Address{}, models.MethodPix, "")
	require.NoError(t, err)

	require.NoError(t, env.svc.UpdateStatus(context.Background(), order, models.OrderPaid, ""))
	require.NoError(t, env.svc.UpdateStatus(context.Background(), order, models.OrderProcessing, ""))

	require.ErrorIs(t, env.svc.Cancel(context.Background(), order, ""), ErrCannotCancel)
	require.False(t, order.StockReleased)
}

func TestReleaseStockIsIdempotent(t *testing.T) {
	env := newTestEnv()
	productID := gocql.TimeUUID()
	env.store.Set(productID, variantM, 5)

	crt := cartWith(models.CartItem{ProductID: productID, Name: "Camiseta", Variant: &variantM, Quantity: 2, Price: 40})
	order, err := env.svc.Create(context.Background(), crt.UserID, crt, models.Address{}, models.MethodPix, "")
	require.NoError(t, err)

	env.svc.ReleaseStock(context.Background(), order)
	env.svc.ReleaseStock(context.Background(), order)
	env.svc.ReleaseStock(context.Background(), order)

	stock, _ := env.store.Stock(context.Background(), productID, variantM)
	require.Equal(t, 5, stock)
}

func TestCreateOrderItemsWithoutVariantSkipReservation(t *testing.T) {
	env := newTestEnv()

	crt := cartWith(models.CartItem{ProductID: gocql.TimeUUID(), Name: "Vale-presente", Quantity: 1, Price: 100})
	order, err := env.svc.Create(context.Background(), crt.UserID, crt, models.Address{}, models.MethodPix, "")
	require.NoError(t, err)
	require.Equal(t, 100.0, order.Pricing.Total)
}
