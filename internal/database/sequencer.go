package database

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisSequencer : compteur mensuel atomique pour les numéros de commande.
// INCR garantit l'unicité même sous checkouts concurrents, là où un
// count-then-format produirait des doublons. La clé repart de zéro à chaque
// période, l'ancienne reste en place pour l'audit.
type RedisSequencer struct {
	client *redis.Client
}

func NewRedisSequencer(client *redis.Client) *RedisSequencer {
	return &RedisSequencer{client: client}
}

func (s *RedisSequencer) Next(ctx context.Context, period string) (int64, error) {
	return s.client.Incr(ctx, "orders:seq:"+period).Result()
}
