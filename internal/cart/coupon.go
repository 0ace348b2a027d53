package cart

import (
	"errors"
	"strings"

	"vestia_back_end/internal/models"
)

var ErrCouponNotFound = errors.New("cupom invalide")

// Resolver résout un code coupon vers sa remise. L'implémentation par défaut
// est une table fixe ; brancher ici un vrai service de coupons plus tard.
type Resolver interface {
	Resolve(code string) (models.CartCoupon, error)
}

// TableResolver résout les coupons depuis une table en mémoire, clé en
// majuscules.
type TableResolver map[string]models.CartCoupon

func (t TableResolver) Resolve(code string) (models.CartCoupon, error) {
	coupon, ok := t[strings.ToUpper(code)]
	if !ok {
		return models.CartCoupon{}, ErrCouponNotFound
	}
	coupon.Code = strings.ToUpper(code)
	return coupon, nil
}

// DefaultCoupons : table de test reprise telle quelle de la config métier.
func DefaultCoupons() TableResolver {
	return TableResolver{
		"DESCONTO10": {Discount: 10, Type: models.CouponPercentage},
		"FRETE":      {Discount: 20, Type: models.CouponFixed},
	}
}
