package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Product struct {
	ID               gocql.UUID       `json:"id"`
	StoreID          gocql.UUID       `json:"store_id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	Description      string           `json:"description"`
	ShortDescription string           `json:"short_description,omitempty"`
	CategoryID       gocql.UUID       `json:"category_id"`
	SubcategoryID    *gocql.UUID      `json:"subcategory_id,omitempty"`
	Brand            string           `json:"brand,omitempty"`
	SKU              string           `json:"sku,omitempty"`
	Images           []Image          `json:"images"`
	TryOnImage       *Image           `json:"tryon_image,omitempty"`
	Price            float64          `json:"price"`
	ComparePrice     *float64         `json:"compare_price,omitempty"`
	Variants         []ProductVariant `json:"variants"`
	Attributes       ProductAttrs     `json:"attributes"`
	TryOnSettings    TryOnSettings    `json:"tryon_settings"`
	Rating           RatingStats      `json:"rating"`
	Sales            int              `json:"sales"`
	IsActive         bool             `json:"is_active"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ProductVariant : chaque combinaison taille + couleur a son propre stock.
type ProductVariant struct {
	Size  string   `json:"size"` // PP, P, M, G, GG, XG, XXG, 34..50, UNICO
	Color Color    `json:"color"`
	Stock int      `json:"stock"`
	SKU   string   `json:"sku,omitempty"`
	Price *float64 `json:"price,omitempty"` // Prix spécifique de la variante (optionnel)
}

type Color struct {
	Name string `json:"name"`
	Hex  string `json:"hex,omitempty"`
}

// Variant identifie une variante choisie (panier, commande, try-on).
type Variant struct {
	Size  string `json:"size"`
	Color Color  `json:"color"`
}

// Matches : même taille ET même nom de couleur, rien d'autre.
func (v Variant) Matches(o Variant) bool {
	return v.Size == o.Size && v.Color.Name == o.Color.Name
}

type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id,omitempty"`
	IsMain   bool   `json:"is_main,omitempty"`
}

type ProductAttrs struct {
	Material    string   `json:"material,omitempty"`
	Composition string   `json:"composition,omitempty"` // Ex: "100% coton"
	Gender      string   `json:"gender,omitempty"`      // masculino, feminino, unissex, infantil
	Fit         string   `json:"fit,omitempty"`         // slim, regular, oversized, skinny, loose
	Occasion    []string `json:"occasion,omitempty"`
	Season      []string `json:"season,omitempty"`
}

type TryOnSettings struct {
	Enabled  bool   `json:"enabled"`
	Category string `json:"category,omitempty"` // top, bottom, dress, outerwear, accessories, shoes
}

type RatingStats struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
