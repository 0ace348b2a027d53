package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vestia_back_end/internal/models"
)

func items(price float64, qty int) []models.OrderItem {
	return []models.OrderItem{{Name: "Camiseta", Price: price, Quantity: qty}}
}

func TestComputeTotalsPercentageCoupon(t *testing.T) {
	engine := NewEngine(nil)
	coupon := &models.CartCoupon{Code: "DESCONTO10", Discount: 10, Type: models.CouponPercentage}

	totals := engine.ComputeTotals(items(100, 2), coupon, "")

	require.Equal(t, 200.0, totals.Subtotal)
	require.Equal(t, 0.0, totals.Shipping)
	require.Equal(t, 20.0, totals.Discount)
	require.Equal(t, 180.0, totals.Total)
}

func TestComputeTotalsFixedCoupon(t *testing.T) {
	engine := NewEngine(nil)
	coupon := &models.CartCoupon{Code: "FRETE", Discount: 20, Type: models.CouponFixed}

	totals := engine.ComputeTotals(items(100, 2), coupon, "")

	require.Equal(t, 200.0, totals.Subtotal)
	require.Equal(t, 20.0, totals.Discount)
	require.Equal(t, 180.0, totals.Total)
}

func TestComputeTotalsNoCoupon(t *testing.T) {
	engine := NewEngine(nil)
	totals := engine.ComputeTotals(items(49.9, 3), nil, "")

	require.Equal(t, 149.7, totals.Subtotal)
	require.Equal(t, 0.0, totals.Discount)
	require.Equal(t, 149.7, totals.Total)
}

// Un coupon fixe supérieur au sous-total ne rend jamais le total négatif.
func TestComputeTotalsFixedCouponExceedsSubtotal(t *testing.T) {
	engine := NewEngine(nil)
	coupon := &models.CartCoupon{Code: "MEGA", Discount: 500, Type: models.CouponFixed}

	totals := engine.ComputeTotals(items(100, 2), coupon, "")

	require.Equal(t, 500.0, totals.Discount)
	require.Equal(t, 0.0, totals.Total)
}

func TestComputeTotalsFlatRateShipping(t *testing.T) {
	engine := NewEngine(FlatRateQuoter{"sedex": 25.5})

	totals := engine.ComputeTotals(items(100, 1), nil, "sedex")
	require.Equal(t, 25.5, totals.Shipping)
	require.Equal(t, 125.5, totals.Total)

	// Méthode inconnue : frete zéro
	totals = engine.ComputeTotals(items(100, 1), nil, "transportadora")
	require.Equal(t, 0.0, totals.Shipping)
}

// Fonction pure : mêmes entrées, mêmes totaux.
func TestComputeTotalsDeterministic(t *testing.T) {
	engine := NewEngine(nil)
	coupon := &models.CartCoupon{Code: "DESCONTO10", Discount: 10, Type: models.CouponPercentage}
	in := items(33.33, 3)

	first := engine.ComputeTotals(in, coupon, "")
	for range 10 {
		require.Equal(t, first, engine.ComputeTotals(in, coupon, ""))
	}
}

// Les centimes ne dérivent pas en flottant : 0.1 + 0.2 vaut bien 0.3.
func TestComputeTotalsCentExact(t *testing.T) {
	engine := NewEngine(nil)
	in := []models.OrderItem{
		{Price: 0.1, Quantity: 1},
		{Price: 0.2, Quantity: 1},
	}
	totals := engine.ComputeTotals(in, nil, "")
	require.Equal(t, 0.3, totals.Subtotal)
	require.Equal(t, 0.3, totals.Total)
}

func TestLineSubtotal(t *testing.T) {
	require.Equal(t, 99.9, LineSubtotal(33.3, 3))
	require.Equal(t, 200.0, LineSubtotal(100, 2))
}
