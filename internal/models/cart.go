package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Cart : un panier par utilisateur, créé paresseusement au premier accès.
// Stocké en JSON dans Redis sous la clé "cart:"+userID, jamais supprimé.
type Cart struct {
	UserID    gocql.UUID  `json:"user_id"`
	Items     []CartItem  `json:"items"`
	Coupon    *CartCoupon `json:"coupon,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type CartItem struct {
	ProductID gocql.UUID `json:"product_id"`
	StoreID   gocql.UUID `json:"store_id"`
	Name      string     `json:"name"`
	Image     string     `json:"image,omitempty"`
	Variant   *Variant   `json:"variant,omitempty"`
	Quantity  int        `json:"quantity"`
	Price     float64    `json:"price"` // Prix capturé au moment de l'ajout
}

// Types de coupon
const (
	CouponPercentage = "percentage"
	CouponFixed      = "fixed"
)

type CartCoupon struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
	Type     string  `json:"type"` // "percentage" ou "fixed"
}
