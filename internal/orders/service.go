package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"

	"vestia_back_end/internal/inventory"
	"vestia_back_end/internal/models"
	"vestia_back_end/internal/pricing"
)

var (
	ErrEmptyCart = errors.New("panier vide")
	ErrNotFound  = errors.New("commande introuvable")

	// ErrCannotCancel : la commande n'est plus dans un statut annulable
	// (seuls pending et paid le sont).
	ErrCannotCancel = errors.New("commande non annulable dans ce statut")
)

// OutOfStockError enrichit inventory.ErrOutOfStock du nom du produit pour le
// message utilisateur.
type OutOfStockError struct {
	Product string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("stock insuffisant pour %s", e.Product)
}

func (e *OutOfStockError) Unwrap() error { return inventory.ErrOutOfStock }

// Repository : persistance des commandes. Get renvoie ErrNotFound si absente.
type Repository interface {
	Insert(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id gocql.UUID) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
}

// CartStore vide le panier d'un utilisateur après la création de commande.
type CartStore interface {
	Clear(ctx context.Context, userID gocql.UUID) error
}

// StatsCounter incrémente les compteurs de ventes boutique/produit.
// Best-effort : hors de la frontière d'atomicité du checkout.
type StatsCounter interface {
	OrderCreated(ctx context.Context, order *models.Order)
}

// Service porte le cycle de vie des commandes : création depuis un panier,
// transitions de statut validées, annulation avec restitution du stock.
type Service struct {
	Orders   Repository
	Stock    *inventory.Ledger
	Pricing  pricing.Engine
	Numbers  *NumberGenerator
	Carts    CartStore
	Counters StatsCounter
}

type reservation struct {
	productID gocql.UUID
	variant   models.Variant
	quantity  int
}

// Create crée une commande depuis le panier : réservation du stock variante
// par variante (tout-ou-rien, compensation en cas d'échec partiel), calcul
// des totaux, numéro de commande, snapshot figé des articles, puis vidage du
// panier. Les compteurs de stats sont incrémentés en best-effort.
func (s *Service) Create(ctx context.Context, userID gocql.UUID, crt *models.Cart, addr models.Address, method, notes string) (*models.Order, error) {
	if crt == nil || len(crt.Items) == 0 {
		return nil, ErrEmptyCart
	}

	// 1. Réserver le stock de chaque variante. Au premier échec, toutes les
	// réservations déjà prises dans cet appel sont rendues : sans cela le
	// stock fuirait à chaque checkout partiellement raté.
	var reserved []reservation
	for _, item := range crt.Items {
		if item.Variant == nil {
			continue
		}
		if err := s.Stock.Reserve(ctx, item.ProductID, *item.Variant, item.Quantity); err != nil {
			s.rollback(ctx, reserved)
			if errors.Is(err, inventory.ErrOutOfStock) {
				return nil, &OutOfStockError{Product: item.Name}
			}
			return nil, fmt.Errorf("réservation stock: %w", err)
		}
		reserved = append(reserved, reservation{item.ProductID, *item.Variant, item.Quantity})
	}

	// 2. Snapshot figé des articles
	items := make([]models.OrderItem, 0, len(crt.Items))
	for _, item := range crt.Items {
		items = append(items, models.OrderItem{
			ProductID: item.ProductID,
			StoreID:   item.StoreID,
			Name:      item.Name,
			Image:     item.Image,
			Variant:   item.Variant,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Subtotal:  pricing.LineSubtotal(item.Price, item.Quantity),
		})
	}

	// 3. Totaux
	totals := s.Pricing.ComputeTotals(items, crt.Coupon, "")

	// 4. Numéro de commande (séquence atomique, voir NumberGenerator)
	number, err := s.Numbers.Generate(ctx)
	if err != nil {
		s.rollback(ctx, reserved)
		return nil, err
	}

	now := time.Now()
	order := &models.Order{
		ID:              gocql.TimeUUID(),
		OrderNumber:     number,
		UserID:          userID,
		Items:           items,
		ShippingAddress: addr,
		Payment: models.OrderPayment{
			Method: method,
			Status: models.PaymentPending,
		},
		Pricing: models.OrderPricing{
			Subtotal: totals.Subtotal,
			Shipping: totals.Shipping,
			Discount: totals.Discount,
			Total:    totals.Total,
		},
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if crt.Coupon != nil {
		order.Coupon = &models.OrderCoupon{Code: crt.Coupon.Code, Discount: totals.Discount}
	}
	ApplyStatus(order, models.OrderPending, "Commande créée")

	// 5. Persister
	if err := s.Orders.Insert(ctx, order); err != nil {
		s.rollback(ctx, reserved)
		return nil, fmt.Errorf("insertion commande: %w", err)
	}

	// 6. Vider le panier (best-effort : la commande existe déjà)
	if s.Carts != nil {
		if err := s.Carts.Clear(ctx, userID); err != nil {
			log.Printf("⚠️ Vidage panier %s échoué après commande %s: %v", userID, number, err)
		}
	}

	// 7. Compteurs boutique/produit (best-effort)
	if s.Counters != nil {
		s.Counters.OrderCreated(ctx, order)
	}

	return order, nil
}

// UpdateStatus applique une transition validée par la table, ajoute l'entrée
// d'historique et persiste. Transition illégale → InvalidTransitionError.
func (s *Service) UpdateStatus(ctx context.Context, order *models.Order, newStatus, note string) error {
	if !CanTransition(order.Status, newStatus) {
		return &InvalidTransitionError{From: order.Status, To: newStatus}
	}
	ApplyStatus(order, newStatus, note)
	return s.Orders.Update(ctx, order)
}

// Cancel annule une commande pending ou paid : restitue le stock (une seule
// fois par commande, drapeau StockReleased) puis passe en cancelled.
// Rejouer Cancel sur une commande déjà annulée renvoie ErrCannotCancel sans
// re-créditer le stock.
func (s *Service) Cancel(ctx context.Context, order *models.Order, reason string) error {
	if order.Status != models.OrderPending && order.Status != models.OrderPaid {
		return ErrCannotCancel
	}

	s.ReleaseStock(ctx, order)

	note := reason
	if note == "" {
		note = "Annulée par le client"
	}
	ApplyStatus(order, models.OrderCancelled, note)
	order.CancelReason = reason
	return s.Orders.Update(ctx, order)
}

// ReleaseStock restitue le stock de tous les articles à variante de la
// commande, au plus une fois (gardé par StockReleased). Partagé entre
// l'annulation et le remboursement webhook pour interdire le double crédit.
func (s *Service) ReleaseStock(ctx context.Context, order *models.Order) {
	if order.StockReleased {
		return
	}
	for _, item := range order.Items {
		if item.Variant == nil {
			continue
		}
		if err := s.Stock.Release(ctx, item.ProductID, *item.Variant, item.Quantity); err != nil {
			log.Printf("❌ Restitution stock %s (%s/%s) échouée pour commande %s: %v",
				item.ProductID, item.Variant.Size, item.Variant.Color.Name, order.OrderNumber, err)
		}
	}
	order.StockReleased = true
}

// ApplyStatus pose le statut et son entrée d'historique sans validation ni
// persistance. Les appelants passent par Service.UpdateStatus sauf cas
// documentés (réconciliation webhook).
func ApplyStatus(order *models.Order, status, note string) {
	order.Status = status
	order.UpdatedAt = time.Now()
	order.StatusHistory = append(order.StatusHistory, models.StatusChange{
		Status: status,
		Date:   time.Now(),
		Note:   note,
	})
}

func (s *Service) rollback(ctx context.Context, reserved []reservation) {
	for i := len(reserved) - 1; i >= 0; i-- {
		r := reserved[i]
		if err := s.Stock.Release(ctx, r.productID, r.variant, r.quantity); err != nil {
			log.Printf("❌ Compensation réservation %s échouée: %v", r.productID, err)
		}
	}
}
