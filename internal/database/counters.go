package database

import (
	"context"
	"log"

	"github.com/gocql/gocql"

	"vestia_back_end/internal/models"
)

// ScyllaStatsCounter incrémente les compteurs de ventes boutique et produit
// via les colonnes counter du keyspace products. Best-effort : un échec est
// logué, jamais remonté au checkout.
type ScyllaStatsCounter struct {
	session *gocql.Session
}

func NewScyllaStatsCounter(session *gocql.Session) *ScyllaStatsCounter {
	return &ScyllaStatsCounter{session: session}
}

func (c *ScyllaStatsCounter) OrderCreated(ctx context.Context, order *models.Order) {
	seen := map[gocql.UUID]bool{}
	for _, item := range order.Items {
		if err := c.session.Query(`
			UPDATE product_sales SET sales = sales + ? WHERE product_id = ?`,
			int64(item.Quantity), item.ProductID).
			WithContext(ctx).Exec(); err != nil {
			log.Printf("⚠️ Compteur ventes produit %s non incrémenté: %v", item.ProductID, err)
		}

		if seen[item.StoreID] {
			continue
		}
		seen[item.StoreID] = true
		if err := c.session.Query(`
			UPDATE store_stats SET total_orders = total_orders + 1 WHERE store_id = ?`,
			item.StoreID).
			WithContext(ctx).Exec(); err != nil {
			log.Printf("⚠️ Compteur commandes boutique %s non incrémenté: %v", item.StoreID, err)
		}
	}
}
