package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeSequencer : compteur atomique en mémoire par période.
type fakeSequencer struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func newFakeSequencer() *fakeSequencer {
	return &fakeSequencer{seqs: make(map[string]int64)}
}

func (f *fakeSequencer) Next(_ context.Context, period string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seqs[period]++
	return f.seqs[period], nil
}

func TestGenerateFormat(t *testing.T) {
	gen := NewNumberGenerator(newFakeSequencer())
	gen.Now = func() time.Time { return time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC) }

	number, err := gen.Generate(context.Background())
	require.NoError(t, err)
	require.Equal(t, "PV2608000001", number)

	number, err = gen.Generate(context.Background())
	require.NoError(t, err)
	require.Equal(t, "PV2608000002", number)
}

func TestGenerateSequenceResetsPerMonth(t *testing.T) {
	seq := newFakeSequencer()
	gen := NewNumberGenerator(seq)

	gen.Now = func() time.Time { return time.Date(2026, time.August, 31, 23, 59, 0, 0, time.UTC) }
	august, err := gen.Generate(context.Background())
	require.NoError(t, err)

	gen.Now = func() time.Time { return time.Date(2026, time.September, 1, 0, 1, 0, 0, time.UTC) }
	september, err := gen.Generate(context.Background())
	require.NoError(t, err)

	require.Equal(t, "PV2608000001", august)
	require.Equal(t, "PV2609000001", september)
}

// Des allocations concurrentes ne produisent jamais deux numéros identiques.
func TestGenerateConcurrentUnique(t *testing.T) {
	gen := NewNumberGenerator(newFakeSequencer())

	const n = 100
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := gen.Generate(context.Background())
			require.NoError(t, err)
			numbers <- number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool, n)
	for number := range numbers {
		require.False(t, seen[number], "numéro dupliqué: %s", number)
		seen[number] = true
	}
	require.Len(t, seen, n)
}
