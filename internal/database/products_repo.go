package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gocql/gocql"

	"vestia_back_end/internal/models"
)

var ErrProductNotFound = errors.New("produit introuvable")

// GetProduct lit un produit du keyspace products. Les listes (images,
// variantes, attributs) sont des colonnes JSON.
func GetProduct(ctx context.Context, id gocql.UUID) (*models.Product, error) {
	session, err := GetProductsSession()
	if err != nil {
		return nil, err
	}

	p := &models.Product{}
	var images, tryonImage, variants, attrs, tryonSettings, rating string
	var comparePrice *float64
	var subcategoryID *gocql.UUID

	err = session.Query(`
		SELECT product_id, store_id, name, slug, description, short_description,
			category_id, subcategory_id, brand, sku, images, tryon_image, price,
			compare_price, variants, attributes, tryon_settings, rating, sales,
			is_active, created_at, updated_at
		FROM products WHERE product_id = ?`, id).
		WithContext(ctx).Scan(
		&p.ID, &p.StoreID, &p.Name, &p.Slug, &p.Description, &p.ShortDescription,
		&p.CategoryID, &subcategoryID, &p.Brand, &p.SKU, &images, &tryonImage,
		&p.Price, &comparePrice, &variants, &attrs, &tryonSettings, &rating,
		&p.Sales, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	p.ComparePrice = comparePrice
	p.SubcategoryID = subcategoryID
	json.Unmarshal([]byte(images), &p.Images)
	json.Unmarshal([]byte(variants), &p.Variants)
	json.Unmarshal([]byte(attrs), &p.Attributes)
	json.Unmarshal([]byte(tryonSettings), &p.TryOnSettings)
	json.Unmarshal([]byte(rating), &p.Rating)
	if tryonImage != "" {
		p.TryOnImage = &models.Image{}
		json.Unmarshal([]byte(tryonImage), p.TryOnImage)
	}
	return p, nil
}

// SaveProduct écrit le produit complet (insert et update partagent la même
// requête, les commandes gardent leur propre snapshot des articles).
func SaveProduct(ctx context.Context, p *models.Product) error {
	session, err := GetProductsSession()
	if err != nil {
		return err
	}

	enc := func(v any) string {
		raw, _ := json.Marshal(v)
		return string(raw)
	}
	tryonImage := ""
	if p.TryOnImage != nil {
		tryonImage = enc(p.TryOnImage)
	}

	if err := session.Query(`
		INSERT INTO products (product_id, store_id, name, slug, description,
			short_description, category_id, subcategory_id, brand, sku, images,
			tryon_image, price, compare_price, variants, attributes,
			tryon_settings, rating, sales, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.StoreID, p.Name, p.Slug, p.Description, p.ShortDescription,
		p.CategoryID, p.SubcategoryID, p.Brand, p.SKU, enc(p.Images), tryonImage,
		p.Price, p.ComparePrice, enc(p.Variants), enc(p.Attributes),
		enc(p.TryOnSettings), enc(p.Rating), p.Sales, p.IsActive,
		p.CreatedAt, p.UpdatedAt).
		WithContext(ctx).Exec(); err != nil {
		return err
	}

	// Le stock par variante vit dans product_stock, source de vérité du
	// checkout. On la synchronise à chaque écriture produit.
	stock := NewScyllaStockStore(session)
	for _, v := range p.Variants {
		variant := models.Variant{Size: v.Size, Color: v.Color}
		if err := stock.SetStock(ctx, p.ID, variant, v.Stock); err != nil {
			return fmt.Errorf("synchronisation stock variante %s/%s: %w", v.Size, v.Color.Name, err)
		}
	}
	return nil
}

// DeleteProduct désactive un produit (soft delete : les commandes passées y
// font encore référence).
func DeleteProduct(ctx context.Context, id gocql.UUID) error {
	session, err := GetProductsSession()
	if err != nil {
		return err
	}
	return session.Query(`UPDATE products SET is_active = false WHERE product_id = ?`, id).
		WithContext(ctx).Exec()
}

// ListProducts renvoie les produits actifs, filtrables par boutique et
// catégorie.
func ListProducts(ctx context.Context, storeID, categoryID *gocql.UUID, limit int) ([]*models.Product, error) {
	session, err := GetProductsSession()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	iter := session.Query(`SELECT product_id, store_id, category_id, is_active FROM products`).
		WithContext(ctx).Iter()

	var ids []gocql.UUID
	var id, sid, cid gocql.UUID
	var active bool
	for iter.Scan(&id, &sid, &cid, &active) {
		if !active {
			continue
		}
		if storeID != nil && sid != *storeID {
			continue
		}
		if categoryID != nil && cid != *categoryID {
			continue
		}
		ids = append(ids, id)
		if len(ids) >= limit {
			break
		}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	out := make([]*models.Product, 0, len(ids))
	for _, id := range ids {
		p, err := GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
