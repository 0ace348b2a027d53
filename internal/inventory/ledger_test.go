package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/require"

	"vestia_back_end/internal/models"
)

var testVariant = models.Variant{Size: "M", Color: models.Color{Name: "preto"}}

func TestReserveDecrementsStock(t *testing.T) {
	store := NewMemoryStore()
	productID := gocql.TimeUUID()
	store.Set(productID, testVariant, 5)

	ledger := NewLedger(store)
	err := ledger.Reserve(context.Background(), productID, testVariant, 2)
	require.NoError(t, err)

	stock, err := store.Stock(context.Background(), productID, testVariant)
	require.NoError(t, err)
	require.Equal(t, 3, stock)
}

func TestReserveOutOfStock(t *testing.T) {
	store := NewMemoryStore()
	productID := gocql.TimeUUID()
	store.Set(productID, testVariant, 1)

	ledger := NewLedger(store)
	err := ledger.Reserve(context.Background(), productID, testVariant, 2)
	require.ErrorIs(t, err, ErrOutOfStock)

	// Aucun effet de bord en cas d'échec
	stock, _ := store.Stock(context.Background(), productID, testVariant)
	require.Equal(t, 1, stock)
}

func TestReserveRejectsInvalidQuantity(t *testing.T) {
	store := NewMemoryStore()
	productID := gocql.TimeUUID()
	store.Set(productID, testVariant, 5)

	ledger := NewLedger(store)
	require.Error(t, ledger.Reserve(context.Background(), productID, testVariant, 0))
	require.Error(t, ledger.Reserve(context.Background(), productID, testVariant, -3))
}

func TestReleaseRestoresStock(t *testing.T) {
	store := NewMemoryStore()
	productID := gocql.TimeUUID()
	store.Set(productID, testVariant, 5)

	ledger := NewLedger(store)
	require.NoError(t, ledger.Reserve(context.Background(), productID, testVariant, 5))
	require.NoError(t, ledger.Release(context.Background(), productID, testVariant, 5))

	stock, _ := store.Stock(context.Background(), productID, testVariant)
	require.Equal(t, 5, stock)
}

// Deux réservations concurrentes de la dernière pièce : une seule doit gagner.
func TestConcurrentReserveLastUnit(t *testing.T) {
	store := NewMemoryStore()
	productID := gocql.TimeUUID()
	store.Set(productID, testVariant, 1)

	ledger := NewLedger(store)

	const n = 50
	var wg sync.WaitGroup
	results := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- ledger.Reserve(context.Background(), productID, testVariant, 1)
		}()
	}
	wg.Wait()
	close(results)

	var successes, outOfStock int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case err == ErrOutOfStock:
			outOfStock++
		default:
			t.Fatalf("erreur inattendue: %v", err)
		}
	}
	require.Equal(t, 1, successes)
	require.Equal(t, n-1, outOfStock)

	stock, _ := store.Stock(context.Background(), productID, testVariant)
	require.Equal(t, 0, stock)
}

// Le stock reste borné entre 0 et le stock initial quelle que soit la
// séquence réserve/libère.
func TestStockNeverNegative(t *testing.T) {
	store := NewMemoryStore()
	productID := gocql.TimeUUID()
	store.Set(productID, testVariant, 3)

	ledger := NewLedger(store)
	ctx := context.Background()

	require.NoError(t, ledger.Reserve(ctx, productID, testVariant, 3))
	require.ErrorIs(t, ledger.Reserve(ctx, productID, testVariant, 1), ErrOutOfStock)
	require.NoError(t, ledger.Release(ctx, productID, testVariant, 2))
	require.NoError(t, ledger.Reserve(ctx, productID, testVariant, 2))
	require.ErrorIs(t, ledger.Reserve(ctx, productID, testVariant, 1), ErrOutOfStock)

	stock, _ := store.Stock(ctx, productID, testVariant)
	require.Equal(t, 0, stock)
}
