package cart

import (
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/require"

	"vestia_back_end/internal/models"
)

func variant(size, color string) *models.Variant {
	return &models.Variant{Size: size, Color: models.Color{Name: color}}
}

func TestAddItemMergesExactVariantOnly(t *testing.T) {
	productID := gocql.TimeUUID()
	c := &models.Cart{}

	require.NoError(t, AddItem(c, models.CartItem{ProductID: productID, Variant: variant("M", "preto"), Quantity: 1, Price: 100}))
	require.NoError(t, AddItem(c, models.CartItem{ProductID: productID, Variant: variant("M", "preto"), Quantity: 2, Price: 100}))
	require.Len(t, c.Items, 1)
	require.Equal(t, 3, c.Items[0].Quantity)

	// Même produit, couleur différente : nouvelle ligne
	require.NoError(t, AddItem(c, models.CartItem{ProductID: productID, Variant: variant("M", "branco"), Quantity: 1, Price: 100}))
	require.Len(t, c.Items, 2)

	// Même produit, taille différente : nouvelle ligne
	require.NoError(t, AddItem(c, models.CartItem{ProductID: productID, Variant: variant("G", "preto"), Quantity: 1, Price: 100}))
	require.Len(t, c.Items, 3)
}

func TestAddItemWithoutVariant(t *testing.T) {
	productID := gocql.TimeUUID()
	c := &models.Cart{}

	require.NoError(t, AddItem(c, models.CartItem{ProductID: productID, Quantity: 1, Price: 50}))
	require.NoError(t, AddItem(c, models.CartItem{ProductID: productID, Quantity: 1, Price: 50}))
	require.Len(t, c.Items, 1)
	require.Equal(t, 2, c.Items[0].Quantity)

	// Sans variante et avec variante ne fusionnent pas
	require.NoError(t, AddItem(c, models.CartItem{ProductID: productID, Variant: variant("M", "preto"), Quantity: 1, Price: 50}))
	require.Len(t, c.Items, 2)
}

func TestAddItemRejectsZeroQuantity(t *testing.T) {
	c := &models.Cart{}
	require.ErrorIs(t, AddItem(c, models.CartItem{ProductID: gocql.TimeUUID(), Quantity: 0}), ErrInvalidQuantity)
	require.Empty(t, c.Items)
}

func TestUpdateQuantity(t *testing.T) {
	c := &models.Cart{}
	require.NoError(t, AddItem(c, models.CartItem{ProductID: gocql.TimeUUID(), Quantity: 1, Price: 10}))

	require.NoError(t, UpdateQuantity(c, 0, 5))
	require.Equal(t, 5, c.Items[0].Quantity)

	require.ErrorIs(t, UpdateQuantity(c, 0, 0), ErrInvalidQuantity)
	require.ErrorIs(t, UpdateQuantity(c, 3, 1), ErrItemNotFound)
}

func TestRemoveItem(t *testing.T) {
	c := &models.Cart{}
	first := gocql.TimeUUID()
	second := gocql.TimeUUID()
	require.NoError(t, AddItem(c, models.CartItem{ProductID: first, Quantity: 1, Price: 10}))
	require.NoError(t, AddItem(c, models.CartItem{ProductID: second, Quantity: 1, Price: 20}))

	require.NoError(t, RemoveItem(c, 0))
	require.Len(t, c.Items, 1)
	require.Equal(t, second, c.Items[0].ProductID)

	require.ErrorIs(t, RemoveItem(c, 5), ErrItemNotFound)
}

func TestTotals(t *testing.T) {
	c := &models.Cart{}
	require.NoError(t, AddItem(c, models.CartItem{ProductID: gocql.TimeUUID(), Quantity: 2, Price: 100}))

	require.Equal(t, 200.0, Subtotal(c))
	require.Equal(t, 0.0, DiscountAmount(c))
	require.Equal(t, 200.0, Total(c))

	ApplyCoupon(c, models.CartCoupon{Code: "DESCONTO10", Discount: 10, Type: models.CouponPercentage})
	require.Equal(t, 20.0, DiscountAmount(c))
	require.Equal(t, 180.0, Total(c))

	// Coupon fixe au-delà du sous-total : total plafonné à zéro
	ApplyCoupon(c, models.CartCoupon{Code: "MEGA", Discount: 999, Type: models.CouponFixed})
	require.Equal(t, 0.0, Total(c))
}

func TestClear(t *testing.T) {
	c := &models.Cart{}
	require.NoError(t, AddItem(c, models.CartItem{ProductID: gocql.TimeUUID(), Quantity: 2, Price: 100}))
	ApplyCoupon(c, models.CartCoupon{Code: "DESCONTO10", Discount: 10, Type: models.CouponPercentage})

	Clear(c)
	require.Empty(t, c.Items)
	require.Nil(t, c.Coupon)
	require.Equal(t, 0.0, Total(c))
}

func TestCouponResolver(t *testing.T) {
	resolver := DefaultCoupons()

	coupon, err := resolver.Resolve("desconto10")
	require.NoError(t, err)
	require.Equal(t, "DESCONTO10", coupon.Code)
	require.Equal(t, models.CouponPercentage, coupon.Type)

	_, err = resolver.Resolve("NAOEXISTE")
	require.ErrorIs(t, err, ErrCouponNotFound)
}
