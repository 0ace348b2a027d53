package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts de commande
const (
	OrderPending    = "pending"    // En attente de paiement
	OrderPaid       = "paid"       // Payée
	OrderProcessing = "processing" // En préparation
	OrderShipped    = "shipped"    // Expédiée
	OrderDelivered  = "delivered"  // Livrée
	OrderCancelled  = "cancelled"  // Annulée
	OrderRefunded   = "refunded"   // Remboursée
)

// Statuts de paiement (vue du prestataire, distincte du statut commande)
const (
	PaymentPending    = "pending"
	PaymentProcessing = "processing"
	PaymentPaid       = "paid"
	PaymentFailed     = "failed"
	PaymentRefunded   = "refunded"
)

// Méthodes de paiement
const (
	MethodPix        = "pix"
	MethodCreditCard = "credit_card"
	MethodDebitCard  = "debit_card"
	MethodBoleto     = "boleto"
)

type Order struct {
	ID              gocql.UUID     `json:"id"`
	OrderNumber     string         `json:"order_number"`
	UserID          gocql.UUID     `json:"user_id"`
	Items           []OrderItem    `json:"items"`
	ShippingAddress Address        `json:"shipping_address"`
	Payment         OrderPayment   `json:"payment"`
	Pricing         OrderPricing   `json:"pricing"`
	Coupon          *OrderCoupon   `json:"coupon,omitempty"`
	Shipping        ShippingInfo   `json:"shipping"`
	Status          string         `json:"status"`
	StatusHistory   []StatusChange `json:"status_history"`
	Notes           string         `json:"notes,omitempty"`
	CancelReason    string         `json:"cancel_reason,omitempty"`
	StockReleased   bool           `json:"stock_released"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// OrderItem est une copie figée de l'article au moment de l'achat :
// les données produit peuvent changer ensuite, la commande ne bouge plus.
type OrderItem struct {
	ProductID gocql.UUID `json:"product_id"`
	StoreID   gocql.UUID `json:"store_id"`
	Name      string     `json:"name"`
	Image     string     `json:"image,omitempty"`
	Variant   *Variant   `json:"variant,omitempty"`
	Quantity  int        `json:"quantity"`
	Price     float64    `json:"price"`
	Subtotal  float64    `json:"subtotal"`
}

type OrderPayment struct {
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	TransactionID string     `json:"transaction_id,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	PixCode       string     `json:"pix_code,omitempty"`
	PixQrCode     string     `json:"pix_qr_code,omitempty"`
	BoletoURL     string     `json:"boleto_url,omitempty"`
	BoletoBarcode string     `json:"boleto_barcode,omitempty"`
}

type OrderPricing struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

type OrderCoupon struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
}

type ShippingInfo struct {
	Method       string     `json:"method,omitempty"`
	Carrier      string     `json:"carrier,omitempty"`
	TrackingCode string     `json:"tracking_code,omitempty"`
	ShippedAt    *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
}

type StatusChange struct {
	Status string    `json:"status"`
	Date   time.Time `json:"date"`
	Note   string    `json:"note,omitempty"`
}
