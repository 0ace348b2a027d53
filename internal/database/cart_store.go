package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"

	"vestia_back_end/internal/models"
)

// Durée de vie d'un panier abandonné.
const cartTTL = 30 * 24 * time.Hour

// RedisCartStore : panier en JSON sous la clé "cart:<userID>". Le panier est
// jetable, il ne touche jamais ScyllaDB.
type RedisCartStore struct {
	client *redis.Client
}

func NewRedisCartStore(client *redis.Client) *RedisCartStore {
	return &RedisCartStore{client: client}
}

func cartKey(userID gocql.UUID) string {
	return "cart:" + userID.String()
}

// Get renvoie le panier de l'utilisateur, vide s'il n'existe pas.
func (s *RedisCartStore) Get(ctx context.Context, userID gocql.UUID) (*models.Cart, error) {
	raw, err := s.client.Get(ctx, cartKey(userID)).Result()
	if err == redis.Nil {
		return &models.Cart{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}

	var crt models.Cart
	if err := json.Unmarshal([]byte(raw), &crt); err != nil {
		// Panier corrompu : on repart de zéro plutôt que de bloquer l'achat.
		return &models.Cart{UserID: userID}, nil
	}
	return &crt, nil
}

func (s *RedisCartStore) Save(ctx context.Context, crt *models.Cart) error {
	crt.UpdatedAt = time.Now()
	raw, err := json.Marshal(crt)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cartKey(crt.UserID), raw, cartTTL).Err()
}

func (s *RedisCartStore) Clear(ctx context.Context, userID gocql.UUID) error {
	return s.client.Del(ctx, cartKey(userID)).Err()
}
