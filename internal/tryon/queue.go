package tryon

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"
)

const (
	queueKey      = "tryon:queue"
	channelPrefix = "tryon:"
)

// Queue : file de travail des demandes de prova. L'implémentation Redis
// survit à un redémarrage du serveur ; les tests utilisent une file mémoire.
type Queue interface {
	Enqueue(ctx context.Context, id gocql.UUID) error
	// Dequeue bloque jusqu'à timeout. (zéro, nil) signifie file vide.
	Dequeue(ctx context.Context, timeout time.Duration) (gocql.UUID, error)
}

// RedisQueue : file LPUSH/BRPOP sur une liste Redis.
type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Enqueue(ctx context.Context, id gocql.UUID) error {
	return q.client.LPush(ctx, queueKey, id.String()).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (gocql.UUID, error) {
	res, err := q.client.BRPop(ctx, timeout, queueKey).Result()
	if err == redis.Nil {
		return gocql.UUID{}, nil
	}
	if err != nil {
		return gocql.UUID{}, err
	}
	// BRPOP renvoie [clé, valeur].
	return gocql.ParseUUID(res[1])
}

// StatusUpdate : message pub/sub poussé aux clients WebSocket.
type StatusUpdate struct {
	ID          gocql.UUID `json:"id"`
	Status      string     `json:"status"`
	ResultImage string     `json:"result_image,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Publisher diffuse les changements de statut d'une demande.
type Publisher interface {
	Publish(ctx context.Context, update StatusUpdate) error
}

// RedisPublisher publie sur le canal "tryon:<id>" ; le handler WebSocket de
// la demande y est abonné.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, update StatusUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, channelPrefix+update.ID.String(), payload).Err()
}

// Channel renvoie le nom du canal pub/sub d'une demande.
func Channel(id gocql.UUID) string {
	return channelPrefix + id.String()
}
