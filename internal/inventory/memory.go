package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gocql/gocql"

	"vestia_back_end/internal/models"
)

// MemoryStore : implémentation en mémoire de Store, utilisée par les tests et
// le mode développement sans base de données.
type MemoryStore struct {
	mu    sync.Mutex
	stock map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stock: make(map[string]int)}
}

func variantKey(productID gocql.UUID, v models.Variant) string {
	return fmt.Sprintf("%s/%s/%s", productID, v.Size, v.Color.Name)
}

// Set pose le stock initial d'une variante.
func (m *MemoryStore) Set(productID gocql.UUID, v models.Variant, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[variantKey(productID, v)] = stock
}

func (m *MemoryStore) Stock(_ context.Context, productID gocql.UUID, v models.Variant) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.stock[variantKey(productID, v)]
	if !ok {
		return 0, fmt.Errorf("variante inconnue: %s", variantKey(productID, v))
	}
	return current, nil
}

func (m *MemoryStore) CompareAndSwap(_ context.Context, productID gocql.UUID, v models.Variant, old, new int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := variantKey(productID, v)
	if m.stock[key] != old {
		return false, nil
	}
	m.stock[key] = new
	return true, nil
}
