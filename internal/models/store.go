package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Store struct {
	ID          gocql.UUID    `json:"id"`
	OwnerID     gocql.UUID    `json:"owner_id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description,omitempty"`
	Logo        *Image        `json:"logo,omitempty"`
	Banner      *Image        `json:"banner,omitempty"`
	Settings    StoreSettings `json:"settings"`
	Stats       StoreStats    `json:"stats"`
	IsActive    bool          `json:"is_active"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type StoreSettings struct {
	EnableTryOn bool `json:"enable_tryon"`
}

// StoreStats : compteurs best-effort, mis à jour hors de la transaction de commande.
type StoreStats struct {
	TotalOrders   int `json:"total_orders"`
	TotalProducts int `json:"total_products"`
}
