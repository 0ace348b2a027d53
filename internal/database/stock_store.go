package database

import (
	"context"
	"errors"

	"github.com/gocql/gocql"

	"vestia_back_end/internal/models"
)

// ScyllaStockStore : stock par variante dans le keyspace products, avec
// écriture conditionnelle (LWT). La table product_stock est la seule source
// de vérité pour les décréments : jamais de read-modify-write sans CAS.
type ScyllaStockStore struct {
	session *gocql.Session
}

func NewScyllaStockStore(session *gocql.Session) *ScyllaStockStore {
	return &ScyllaStockStore{session: session}
}

func (s *ScyllaStockStore) Stock(ctx context.Context, productID gocql.UUID, v models.Variant) (int, error) {
	var stock int
	err := s.session.Query(`
		SELECT stock FROM product_stock
		WHERE product_id = ? AND size = ? AND color = ?`,
		productID, v.Size, v.Color.Name).
		WithContext(ctx).Scan(&stock)
	if errors.Is(err, gocql.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return stock, nil
}

// CompareAndSwap applique l'écriture seulement si le stock vaut encore old.
// Le faux retour signale qu'un autre checkout est passé avant : l'appelant
// relit et réessaie.
func (s *ScyllaStockStore) CompareAndSwap(ctx context.Context, productID gocql.UUID, v models.Variant, old, new int) (bool, error) {
	var current int
	applied, err := s.session.Query(`
		UPDATE product_stock SET stock = ?
		WHERE product_id = ? AND size = ? AND color = ?
		IF stock = ?`,
		new, productID, v.Size, v.Color.Name, old).
		WithContext(ctx).ScanCAS(&current)
	if err != nil {
		return false, err
	}
	return applied, nil
}

// SetStock pose le stock d'une variante sans condition. Réservé au vendeur
// (création produit, réassort manuel), jamais au checkout.
func (s *ScyllaStockStore) SetStock(ctx context.Context, productID gocql.UUID, v models.Variant, stock int) error {
	return s.session.Query(`
		INSERT INTO product_stock (product_id, size, color, stock)
		VALUES (?, ?, ?, ?)`,
		productID, v.Size, v.Color.Name, stock).
		WithContext(ctx).Exec()
}
