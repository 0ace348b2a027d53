package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts de prova virtuelle
const (
	TryOnPending    = "pending"
	TryOnProcessing = "processing"
	TryOnCompleted  = "completed"
	TryOnFailed     = "failed"
)

// TryOn : une demande de prova virtuelle. Le statut persiste en base pour
// survivre à un redémarrage du serveur pendant la génération.
type TryOn struct {
	ID           gocql.UUID `json:"id"`
	UserID       gocql.UUID `json:"user_id"`
	ProductID    gocql.UUID `json:"product_id"`
	StoreID      gocql.UUID `json:"store_id"`
	UserImage    Image      `json:"user_image"`
	ProductImage Image      `json:"product_image"`
	Variant      *Variant   `json:"variant,omitempty"`
	Category     string     `json:"category"` // upper_body, lower_body, dresses
	Status       string     `json:"status"`
	ResultImage  string     `json:"result_image,omitempty"`
	Provider     string     `json:"provider,omitempty"`
	RequestID    string     `json:"request_id,omitempty"`
	Error        string     `json:"error,omitempty"`
	Attempts     int        `json:"attempts"`
	StartedAt    *time.Time `json:"started_at,omitempty"` // Début du traitement en cours
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
