package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gocql/gocql"

	"vestia_back_end/internal/models"
	"vestia_back_end/internal/orders"
)

// ScyllaOrderRepo persiste les commandes dans le keyspace orders. Les
// sous-structures (articles, historique, paiement...) sont stockées en
// colonnes JSON : une commande est un document figé, jamais requêté champ
// par champ.
type ScyllaOrderRepo struct {
	session *gocql.Session
}

func NewScyllaOrderRepo(session *gocql.Session) *ScyllaOrderRepo {
	return &ScyllaOrderRepo{session: session}
}

type orderBlobs struct {
	items    string
	address  string
	payment  string
	pricing  string
	coupon   string
	shipping string
	history  string
}

func encodeOrder(order *models.Order) (orderBlobs, error) {
	var b orderBlobs
	enc := func(v any) (string, error) {
		raw, err := json.Marshal(v)
		return string(raw), err
	}

	var err error
	if b.items, err = enc(order.Items); err != nil {
		return b, fmt.Errorf("sérialisation articles: %w", err)
	}
	if b.address, err = enc(order.ShippingAddress); err != nil {
		return b, fmt.Errorf("sérialisation adresse: %w", err)
	}
	if b.payment, err = enc(order.Payment); err != nil {
		return b, fmt.Errorf("sérialisation paiement: %w", err)
	}
	if b.pricing, err = enc(order.Pricing); err != nil {
		return b, fmt.Errorf("sérialisation totaux: %w", err)
	}
	if b.shipping, err = enc(order.Shipping); err != nil {
		return b, fmt.Errorf("sérialisation livraison: %w", err)
	}
	if b.history, err = enc(order.StatusHistory); err != nil {
		return b, fmt.Errorf("sérialisation historique: %w", err)
	}
	if order.Coupon != nil {
		if b.coupon, err = enc(order.Coupon); err != nil {
			return b, fmt.Errorf("sérialisation coupon: %w", err)
		}
	}
	return b, nil
}

func decodeOrder(order *models.Order, b orderBlobs) error {
	dec := func(raw string, v any) error {
		if raw == "" {
			return nil
		}
		return json.Unmarshal([]byte(raw), v)
	}

	if err := dec(b.items, &order.Items); err != nil {
		return err
	}
	if err := dec(b.address, &order.ShippingAddress); err != nil {
		return err
	}
	if err := dec(b.payment, &order.Payment); err != nil {
		return err
	}
	if err := dec(b.pricing, &order.Pricing); err != nil {
		return err
	}
	if err := dec(b.shipping, &order.Shipping); err != nil {
		return err
	}
	if err := dec(b.history, &order.StatusHistory); err != nil {
		return err
	}
	if b.coupon != "" {
		order.Coupon = &models.OrderCoupon{}
		if err := dec(b.coupon, order.Coupon); err != nil {
			return err
		}
	}
	return nil
}

func (r *ScyllaOrderRepo) Insert(ctx context.Context, order *models.Order) error {
	b, err := encodeOrder(order)
	if err != nil {
		return err
	}

	if err := r.session.Query(`
		INSERT INTO orders (id, order_number, user_id, items, shipping_address,
			payment, pricing, coupon, shipping, status, status_history,
			notes, cancel_reason, stock_released, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.OrderNumber, order.UserID, b.items, b.address,
		b.payment, b.pricing, b.coupon, b.shipping, order.Status, b.history,
		order.Notes, order.CancelReason, order.StockReleased,
		order.CreatedAt, order.UpdatedAt).
		WithContext(ctx).Exec(); err != nil {
		return err
	}

	// Table de correspondance numéro → id pour la recherche client.
	return r.session.Query(`
		INSERT INTO orders_by_number (order_number, order_id) VALUES (?, ?)`,
		order.OrderNumber, order.ID).
		WithContext(ctx).Exec()
}

func (r *ScyllaOrderRepo) Get(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	order := &models.Order{}
	var b orderBlobs

	err := r.session.Query(`
		SELECT id, order_number, user_id, items, shipping_address, payment,
			pricing, coupon, shipping, status, status_history, notes,
			cancel_reason, stock_released, created_at, updated_at
		FROM orders WHERE id = ?`, id).
		WithContext(ctx).Scan(
		&order.ID, &order.OrderNumber, &order.UserID, &b.items, &b.address,
		&b.payment, &b.pricing, &b.coupon, &b.shipping, &order.Status,
		&b.history, &order.Notes, &order.CancelReason, &order.StockReleased,
		&order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, orders.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := decodeOrder(order, b); err != nil {
		return nil, fmt.Errorf("désérialisation commande %s: %w", id, err)
	}
	return order, nil
}

func (r *ScyllaOrderRepo) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	var id gocql.UUID
	err := r.session.Query(`
		SELECT order_id FROM orders_by_number WHERE order_number = ?`, number).
		WithContext(ctx).Scan(&id)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, orders.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *ScyllaOrderRepo) Update(ctx context.Context, order *models.Order) error {
	b, err := encodeOrder(order)
	if err != nil {
		return err
	}
	order.UpdatedAt = time.Now()

	return r.session.Query(`
		UPDATE orders SET items = ?, payment = ?, pricing = ?, shipping = ?,
			status = ?, status_history = ?, notes = ?, cancel_reason = ?,
			stock_released = ?, updated_at = ?
		WHERE id = ?`,
		b.items, b.payment, b.pricing, b.shipping, order.Status, b.history,
		order.Notes, order.CancelReason, order.StockReleased,
		order.UpdatedAt, order.ID).
		WithContext(ctx).Exec()
}

// ListByUser renvoie les commandes d'un client, les plus récentes d'abord.
func (r *ScyllaOrderRepo) ListByUser(ctx context.Context, userID gocql.UUID, limit int) ([]*models.Order, error) {
	if limit <= 0 {
		limit = 20
	}

	iter := r.session.Query(`
		SELECT id FROM orders WHERE user_id = ? LIMIT ? ALLOW FILTERING`,
		userID, limit).
		WithContext(ctx).Iter()

	var ids []gocql.UUID
	var id gocql.UUID
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	out := make([]*models.Order, 0, len(ids))
	for _, id := range ids {
		order, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	sortOrdersByDate(out)
	return out, nil
}

// ListByStore renvoie les commandes contenant au moins un article de la
// boutique, pour le tableau de bord vendeur.
func (r *ScyllaOrderRepo) ListByStore(ctx context.Context, storeID gocql.UUID, limit int) ([]*models.Order, error) {
	if limit <= 0 {
		limit = 50
	}

	iter := r.session.Query(`SELECT id, items FROM orders`).
		WithContext(ctx).Iter()

	var ids []gocql.UUID
	var id gocql.UUID
	var rawItems string
	for iter.Scan(&id, &rawItems) {
		var items []models.OrderItem
		if json.Unmarshal([]byte(rawItems), &items) != nil {
			continue
		}
		for _, item := range items {
			if item.StoreID == storeID {
				ids = append(ids, id)
				break
			}
		}
		if len(ids) >= limit {
			break
		}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	out := make([]*models.Order, 0, len(ids))
	for _, id := range ids {
		order, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	sortOrdersByDate(out)
	return out, nil
}

func sortOrdersByDate(list []*models.Order) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
