package tryon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vestia_back_end/internal/models"
)

type fakeRepo struct {
	mu   sync.Mutex
	byID map[gocql.UUID]*models.TryOn
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[gocql.UUID]*models.TryOn{}}
}

func (f *fakeRepo) Get(_ context.Context, id gocql.UUID) (*models.TryOn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return nil, gocql.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (f *fakeRepo) Update(_ context.Context, t *models.TryOn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *t
	f.byID[t.ID] = &clone
	return nil
}

func (f *fakeRepo) Stuck(_ context.Context, olderThan time.Duration) ([]*models.TryOn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.TryOn
	cutoff := time.Now().Add(-olderThan)
	for _, t := range f.byID {
		stale := t.Status == models.TryOnProcessing && t.StartedAt != nil && t.StartedAt.Before(cutoff)
		neverStarted := t.Status == models.TryOnPending && t.StartedAt == nil && t.CreatedAt.Before(cutoff)
		if stale || neverStarted {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out, nil
}

type memQueue struct {
	mu  sync.Mutex
	ids []gocql.UUID
}

func (q *memQueue) Enqueue(_ context.Context, id gocql.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, id)
	return nil
}

func (q *memQueue) Dequeue(_ context.Context, _ time.Duration) (gocql.UUID, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ids) == 0 {
		return gocql.UUID{}, nil
	}
	id := q.ids[0]
	q.ids = q.ids[1:]
	return id, nil
}

func (q *memQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

type memPublisher struct {
	mu      sync.Mutex
	updates []StatusUpdate
}

func (p *memPublisher) Publish(_ context.Context, update StatusUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, update)
	return nil
}

func (p *memPublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, u := range p.updates {
		out = append(out, u.Status)
	}
	return out
}

func seedTryOn(t *testing.T, repo *fakeRepo) *models.TryOn {
	t.Helper()
	req := &models.TryOn{
		ID:           gocql.TimeUUID(),
		UserID:       gocql.TimeUUID(),
		ProductID:    gocql.TimeUUID(),
		UserImage:    models.Image{URL: "https://media/users/corps.jpg"},
		ProductImage: models.Image{URL: "https://media/products/camiseta.jpg"},
		Category:     "upper_body",
		Status:       models.TryOnPending,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, repo.Update(context.Background(), req))
	return req
}

func newWorker(repo Repository, queue Queue, gen Generator, pub Publisher) *Worker {
	w := NewWorker(repo, queue, gen, pub)
	w.Timeout = time.Second
	w.Staleness = 50 * time.Millisecond
	return w
}

func TestProcessOneCompletes(t *testing.T) {
	repo := newFakeRepo()
	queue := &memQueue{}
	pub := &memPublisher{}
	w := newWorker(repo, queue, &MockGenerator{}, pub)
	req := seedTryOn(t, repo)

	require.NoError(t, w.ProcessOne(context.Background(), req.ID))

	stored, err := repo.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TryOnCompleted, stored.Status)
	assert.Equal(t, "https://media/products/camiseta.jpg", stored.ResultImage)
	assert.Equal(t, "mock", stored.Provider)
	assert.Equal(t, 1, stored.Attempts)
	assert.NotNil(t, stored.StartedAt)
	assert.NotNil(t, stored.CompletedAt)
	assert.Equal(t, []string{models.TryOnProcessing, models.TryOnCompleted}, pub.statuses())
}

func TestProcessOneRequeuesOnFailure(t *testing.T) {
	repo := newFakeRepo()
	queue := &memQueue{}
	gen := &MockGenerator{Fail: true}
	w := newWorker(repo, queue, gen, &memPublisher{})
	req := seedTryOn(t, repo)

	require.NoError(t, w.ProcessOne(context.Background(), req.ID))

	stored, _ := repo.Get(context.Background(), req.ID)
	assert.Equal(t, models.TryOnPending, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	assert.NotEmpty(t, stored.Error)
	assert.Equal(t, 1, queue.len())
}

func TestProcessOneFailsAfterMaxAttempts(t *testing.T) {
	repo := newFakeRepo()
	queue := &memQueue{}
	gen := &MockGenerator{Fail: true}
	w := newWorker(repo, queue, gen, &memPublisher{})
	w.MaxAttempts = 3
	req := seedTryOn(t, repo)

	for i := 0; i < 3; i++ {
		require.NoError(t, w.ProcessOne(context.Background(), req.ID))
	}

	stored, _ := repo.Get(context.Background(), req.ID)
	assert.Equal(t, models.TryOnFailed, stored.Status)
	assert.Equal(t, 3, stored.Attempts)
	assert.NotNil(t, stored.CompletedAt)
	// Plus rien en file : l'échec est définitif.
	assert.Equal(t, 0, queue.len())
}

func TestProcessOneSkipsCompletedDuplicate(t *testing.T) {
	repo := newFakeRepo()
	w := newWorker(repo, &memQueue{}, &MockGenerator{}, &memPublisher{})
	req := seedTryOn(t, repo)

	require.NoError(t, w.ProcessOne(context.Background(), req.ID))
	require.NoError(t, w.ProcessOne(context.Background(), req.ID))

	stored, _ := repo.Get(context.Background(), req.ID)
	assert.Equal(t, 1, stored.Attempts)
}

func TestSweepRequeuesStaleProcessing(t *testing.T) {
	repo := newFakeRepo()
	queue := &memQueue{}
	w := newWorker(repo, queue, &MockGenerator{}, &memPublisher{})
	req := seedTryOn(t, repo)

	// Demande abandonnée : worker tombé après le passage en processing.
	started := time.Now().Add(-time.Minute)
	req.Status = models.TryOnProcessing
	req.StartedAt = &started
	req.Attempts = 1
	require.NoError(t, repo.Update(context.Background(), req))

	require.NoError(t, w.Sweep(context.Background()))

	stored, _ := repo.Get(context.Background(), req.ID)
	assert.Equal(t, models.TryOnPending, stored.Status)
	assert.Equal(t, 1, queue.len())
}

func TestSweepRequeuesNeverQueuedPending(t *testing.T) {
	repo := newFakeRepo()
	queue := &memQueue{}
	pub := &memPublisher{}
	w := newWorker(repo, queue, &MockGenerator{}, pub)
	req := seedTryOn(t, repo)

	// Demande créée mais jamais mise en file (panne Redis après l'insertion).
	req.CreatedAt = time.Now().Add(-time.Minute)
	require.NoError(t, repo.Update(context.Background(), req))

	require.NoError(t, w.Sweep(context.Background()))

	// Remise en file telle quelle : pas d'erreur ni de tentative comptée.
	stored, _ := repo.Get(context.Background(), req.ID)
	assert.Equal(t, models.TryOnPending, stored.Status)
	assert.Equal(t, 0, stored.Attempts)
	assert.Empty(t, stored.Error)
	require.Equal(t, 1, queue.len())

	id, err := queue.Dequeue(context.Background(), time.Second)
	require.NoError(t, err)
	require.NoError(t, w.ProcessOne(context.Background(), id))

	stored, _ = repo.Get(context.Background(), req.ID)
	assert.Equal(t, models.TryOnCompleted, stored.Status)
}

func TestSweepFailsExhaustedRequest(t *testing.T) {
	repo := newFakeRepo()
	queue := &memQueue{}
	w := newWorker(repo, queue, &MockGenerator{}, &memPublisher{})
	w.MaxAttempts = 2
	req := seedTryOn(t, repo)

	started := time.Now().Add(-time.Minute)
	req.Status = models.TryOnProcessing
	req.StartedAt = &started
	req.Attempts = 2
	require.NoError(t, repo.Update(context.Background(), req))

	require.NoError(t, w.Sweep(context.Background()))

	stored, _ := repo.Get(context.Background(), req.ID)
	assert.Equal(t, models.TryOnFailed, stored.Status)
	assert.Equal(t, 0, queue.len())
}

func TestMockGeneratorRejectsMissingImages(t *testing.T) {
	gen := &MockGenerator{}
	_, err := gen.Generate(context.Background(), GenerateRequest{})
	assert.Error(t, err)
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, "upper_body", CategoryFor(nil))
	assert.Equal(t, "upper_body", CategoryFor(&models.Product{}))
	assert.Equal(t, "lower_body", CategoryFor(&models.Product{
		TryOnSettings: models.TryOnSettings{Enabled: true, Category: "bottom"},
	}))
	assert.Equal(t, "dresses", CategoryFor(&models.Product{
		TryOnSettings: models.TryOnSettings{Enabled: true, Category: "dress"},
	}))
}
