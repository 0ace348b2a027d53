package database

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gocql/gocql"

	"vestia_back_end/internal/models"
)

var ErrStoreNotFound = errors.New("boutique introuvable")

// GetStore lit une boutique du keyspace products.
func GetStore(ctx context.Context, id gocql.UUID) (*models.Store, error) {
	session, err := GetProductsSession()
	if err != nil {
		return nil, err
	}

	s := &models.Store{}
	var logo, banner, settings string
	err = session.Query(`
		SELECT store_id, owner_id, name, slug, description, logo, banner,
			settings, is_active, created_at, updated_at
		FROM stores WHERE store_id = ?`, id).
		WithContext(ctx).Scan(
		&s.ID, &s.OwnerID, &s.Name, &s.Slug, &s.Description, &logo, &banner,
		&settings, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}

	if logo != "" {
		s.Logo = &models.Image{}
		json.Unmarshal([]byte(logo), s.Logo)
	}
	if banner != "" {
		s.Banner = &models.Image{}
		json.Unmarshal([]byte(banner), s.Banner)
	}
	json.Unmarshal([]byte(settings), &s.Settings)

	// Compteurs dans store_stats (colonnes counter, table séparée)
	var totalOrders, totalProducts int64
	if err := session.Query(`
		SELECT total_orders, total_products FROM store_stats WHERE store_id = ?`, id).
		WithContext(ctx).Scan(&totalOrders, &totalProducts); err == nil {
		s.Stats = models.StoreStats{TotalOrders: int(totalOrders), TotalProducts: int(totalProducts)}
	}
	return s, nil
}

// GetStoreByOwner renvoie la boutique d'un vendeur (une seule par compte).
func GetStoreByOwner(ctx context.Context, ownerID gocql.UUID) (*models.Store, error) {
	session, err := GetProductsSession()
	if err != nil {
		return nil, err
	}

	var id gocql.UUID
	err = session.Query(`SELECT store_id FROM stores_by_owner WHERE owner_id = ?`, ownerID).
		WithContext(ctx).Scan(&id)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	return GetStore(ctx, id)
}

// SaveStore écrit la boutique et sa table de correspondance propriétaire.
func SaveStore(ctx context.Context, s *models.Store) error {
	session, err := GetProductsSession()
	if err != nil {
		return err
	}

	enc := func(v any) string {
		raw, _ := json.Marshal(v)
		return string(raw)
	}
	logo, banner := "", ""
	if s.Logo != nil {
		logo = enc(s.Logo)
	}
	if s.Banner != nil {
		banner = enc(s.Banner)
	}

	if err := session.Query(`
		INSERT INTO stores (store_id, owner_id, name, slug, description, logo,
			banner, settings, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.OwnerID, s.Name, s.Slug, s.Description, logo, banner,
		enc(s.Settings), s.IsActive, s.CreatedAt, s.UpdatedAt).
		WithContext(ctx).Exec(); err != nil {
		return err
	}
	return session.Query(`INSERT INTO stores_by_owner (owner_id, store_id) VALUES (?, ?)`,
		s.OwnerID, s.ID).
		WithContext(ctx).Exec()
}
