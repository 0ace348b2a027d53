package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gocql/gocql"

	"vestia_back_end/internal/models"
)

// ScyllaTryOnRepo persiste les demandes de prova dans le keyspace users
// (la prova appartient au client, pas au produit).
type ScyllaTryOnRepo struct {
	session *gocql.Session
}

func NewScyllaTryOnRepo(session *gocql.Session) *ScyllaTryOnRepo {
	return &ScyllaTryOnRepo{session: session}
}

func (r *ScyllaTryOnRepo) Insert(ctx context.Context, t *models.TryOn) error {
	userImage, _ := json.Marshal(t.UserImage)
	productImage, _ := json.Marshal(t.ProductImage)
	var variant string
	if t.Variant != nil {
		raw, _ := json.Marshal(t.Variant)
		variant = string(raw)
	}

	return r.session.Query(`
		INSERT INTO tryons (id, user_id, product_id, store_id, user_image,
			product_image, variant, category, status, result_image, provider,
			request_id, error, attempts, started_at, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.ProductID, t.StoreID, string(userImage),
		string(productImage), variant, t.Category, t.Status, t.ResultImage,
		t.Provider, t.RequestID, t.Error, t.Attempts, t.StartedAt,
		t.CompletedAt, t.CreatedAt).
		WithContext(ctx).Exec()
}

func (r *ScyllaTryOnRepo) Get(ctx context.Context, id gocql.UUID) (*models.TryOn, error) {
	t := &models.TryOn{}
	var userImage, productImage, variant string

	if err := r.session.Query(`
		SELECT id, user_id, product_id, store_id, user_image, product_image,
			variant, category, status, result_image, provider, request_id,
			error, attempts, started_at, completed_at, created_at
		FROM tryons WHERE id = ?`, id).
		WithContext(ctx).Scan(
		&t.ID, &t.UserID, &t.ProductID, &t.StoreID, &userImage, &productImage,
		&variant, &t.Category, &t.Status, &t.ResultImage, &t.Provider,
		&t.RequestID, &t.Error, &t.Attempts, &t.StartedAt, &t.CompletedAt,
		&t.CreatedAt); err != nil {
		return nil, err
	}

	json.Unmarshal([]byte(userImage), &t.UserImage)
	json.Unmarshal([]byte(productImage), &t.ProductImage)
	if variant != "" {
		t.Variant = &models.Variant{}
		json.Unmarshal([]byte(variant), t.Variant)
	}
	return t, nil
}

func (r *ScyllaTryOnRepo) Update(ctx context.Context, t *models.TryOn) error {
	return r.session.Query(`
		UPDATE tryons SET status = ?, result_image = ?, provider = ?,
			request_id = ?, error = ?, attempts = ?, started_at = ?,
			completed_at = ?
		WHERE id = ?`,
		t.Status, t.ResultImage, t.Provider, t.RequestID, t.Error,
		t.Attempts, t.StartedAt, t.CompletedAt, t.ID).
		WithContext(ctx).Exec()
}

// ListByUser renvoie l'historique de provas d'un client.
func (r *ScyllaTryOnRepo) ListByUser(ctx context.Context, userID gocql.UUID, limit int) ([]*models.TryOn, error) {
	if limit <= 0 {
		limit = 20
	}

	iter := r.session.Query(`
		SELECT id FROM tryons WHERE user_id = ? LIMIT ? ALLOW FILTERING`,
		userID, limit).
		WithContext(ctx).Iter()

	var ids []gocql.UUID
	var id gocql.UUID
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	out := make([]*models.TryOn, 0, len(ids))
	for _, id := range ids {
		t, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Stuck renvoie les demandes abandonnées, pour le balayeur du worker :
// en processing depuis plus de olderThan (worker tombé en pleine
// génération), ou en pending jamais démarrées et plus vieilles que olderThan
// (mise en file perdue à la création).
func (r *ScyllaTryOnRepo) Stuck(ctx context.Context, olderThan time.Duration) ([]*models.TryOn, error) {
	cutoff := time.Now().Add(-olderThan)

	var ids []gocql.UUID

	iter := r.session.Query(`
		SELECT id, started_at FROM tryons WHERE status = ? ALLOW FILTERING`,
		models.TryOnProcessing).
		WithContext(ctx).Iter()

	var id gocql.UUID
	var startedAt *time.Time
	for iter.Scan(&id, &startedAt) {
		if startedAt != nil && startedAt.Before(cutoff) {
			ids = append(ids, id)
		}
		startedAt = nil
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	iter = r.session.Query(`
		SELECT id, started_at, created_at FROM tryons WHERE status = ? ALLOW FILTERING`,
		models.TryOnPending).
		WithContext(ctx).Iter()

	var createdAt time.Time
	for iter.Scan(&id, &startedAt, &createdAt) {
		if startedAt == nil && createdAt.Before(cutoff) {
			ids = append(ids, id)
		}
		startedAt = nil
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	out := make([]*models.TryOn, 0, len(ids))
	for _, id := range ids {
		t, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
