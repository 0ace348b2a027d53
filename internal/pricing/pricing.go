package pricing

import (
	"github.com/shopspring/decimal"

	"vestia_back_end/internal/models"
)

// Totals : décomposition du prix d'une commande, arrondie au centime.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// ShippingQuoter calcule le frais de port pour une méthode de livraison.
// Le calcul réel (transporteur externe) n'est pas branché ; la table plate
// suffit tant que le frete est offert.
type ShippingQuoter interface {
	Quote(method string, items []models.OrderItem) float64
}

// FlatRateQuoter : table plate méthode → tarif. Méthode absente = 0.
type FlatRateQuoter map[string]float64

func (f FlatRateQuoter) Quote(method string, _ []models.OrderItem) float64 {
	return f[method]
}

// Engine assemble sous-total, frete, remise et total. Fonction pure de ses
// entrées : mêmes articles + même coupon → mêmes totaux.
type Engine struct {
	Shipping ShippingQuoter
}

func NewEngine(quoter ShippingQuoter) Engine {
	if quoter == nil {
		quoter = FlatRateQuoter{}
	}
	return Engine{Shipping: quoter}
}

// ComputeTotals calcule les totaux en décimal exact (pas d'accumulation
// d'erreurs binaires sur les centimes), puis arrondit à 2 décimales.
// Un coupon fixe peut dépasser le sous-total : le total est plafonné à 0.
func (e Engine) ComputeTotals(items []models.OrderItem, coupon *models.CartCoupon, shippingMethod string) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}

	shipping := decimal.NewFromFloat(e.Shipping.Quote(shippingMethod, items))

	discount := decimal.Zero
	if coupon != nil {
		if coupon.Type == models.CouponPercentage {
			discount = subtotal.Mul(decimal.NewFromFloat(coupon.Discount)).Div(decimal.NewFromInt(100))
		} else {
			discount = decimal.NewFromFloat(coupon.Discount)
		}
	}

	total := subtotal.Add(shipping).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	round := func(d decimal.Decimal) float64 { return d.Round(2).InexactFloat64() }
	return Totals{
		Subtotal: round(subtotal),
		Shipping: round(shipping),
		Discount: round(discount),
		Total:    round(total),
	}
}

// LineSubtotal : prix × quantité d'une ligne, arrondi au centime.
func LineSubtotal(price float64, quantity int) float64 {
	return decimal.NewFromFloat(price).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(2).InexactFloat64()
}
