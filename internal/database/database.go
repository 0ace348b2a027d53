package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
)

// Keyspaces logiques : chaque domaine a son keyspace et son rôle ScyllaDB
// dédié (moindre privilège). Les variables d'env suivent le motif
// SCYLLA_KS_<NOM>_KEYSPACE / _ROLE / _PASSWORD.
const (
	ksProducts = "PRODUCTS"
	ksUsers    = "USERS"
	ksOrders   = "ORDERS"
)

type ScyllaKeyspaceConfig struct {
	Hosts       []string
	Keyspace    string
	Username    string
	Password    string
	SSLEnabled  bool
	CACertPath  string
	Timeout     time.Duration
	NumConns    int
	Consistency gocql.Consistency
}

// ScyllaManager garde une session gocql par keyspace et les recrée si la
// sonde de vivacité échoue.
type ScyllaManager struct {
	sessions map[string]*gocql.Session // keyspace → session
	configs  map[string]ScyllaKeyspaceConfig
	mu       sync.Mutex
}

var (
	Scylla *ScyllaManager
	Redis  *redis.Client
	MinIO  *minio.Client
)

func ConnectDatabases() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := InitScyllaDB(); err != nil {
		log.Fatalf("❌ Échec initialisation ScyllaDB: %v", err)
	}
	connectRedis(ctx)
	connectMinIO(ctx)

	log.Println("✅ Toutes les bases de données sont connectées")
}

// InitScyllaDB ouvre une session par keyspace configuré.
// Note: Les tables doivent être créées manuellement via scripts/scylladb_init.cql
func InitScyllaDB() error {
	Scylla = &ScyllaManager{
		sessions: make(map[string]*gocql.Session),
		configs:  loadScyllaConfigs(),
	}

	for keyspace := range Scylla.configs {
		if _, err := Scylla.GetSession(keyspace); err != nil {
			return fmt.Errorf("échec initialisation keyspace %s: %v", keyspace, err)
		}
	}
	return nil
}

// loadScyllaConfigs assemble la config des trois keyspaces depuis .env.
// Un keyspace sans variable d'env est simplement absent (utile en test).
func loadScyllaConfigs() map[string]ScyllaKeyspaceConfig {
	hosts := strings.Split(os.Getenv("SCYLLA_HOSTS"), ",")
	sslEnabled := strings.ToLower(os.Getenv("SCYLLA_SSL_ENABLED")) == "true"
	caPath := os.Getenv("SCYLLA_SSL_CA_PATH")

	configs := make(map[string]ScyllaKeyspaceConfig)
	for _, name := range []string{ksProducts, ksUsers, ksOrders} {
		ks := os.Getenv("SCYLLA_KS_" + name + "_KEYSPACE")
		if ks == "" {
			continue
		}
		configs[ks] = ScyllaKeyspaceConfig{
			Hosts:       hosts,
			Keyspace:    ks,
			Username:    os.Getenv("SCYLLA_KS_" + name + "_ROLE"),
			Password:    os.Getenv("SCYLLA_KS_" + name + "_PASSWORD"),
			SSLEnabled:  sslEnabled,
			CACertPath:  caPath,
			Timeout:     5 * time.Second,
			NumConns:    20,
			Consistency: gocql.Quorum,
		}
	}
	return configs
}

func createScyllaCluster(config ScyllaKeyspaceConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(config.Hosts...)
	cluster.Keyspace = config.Keyspace
	cluster.Consistency = config.Consistency
	cluster.Timeout = config.Timeout
	cluster.NumConns = config.NumConns
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second
	cluster.Authenticator = gocql.PasswordAuthenticator{
		Username: config.Username,
		Password: config.Password,
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	if config.SSLEnabled && config.CACertPath != "" {
		cluster.SslOpts = &gocql.SslOptions{CaPath: config.CACertPath}
	}
	return cluster
}

// GetSession renvoie la session du keyspace, recréée si la sonde échoue.
func (sm *ScyllaManager) GetSession(keyspace string) (*gocql.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	config, exists := sm.configs[keyspace]
	if !exists {
		return nil, fmt.Errorf("keyspace '%s' non configuré", keyspace)
	}

	if session, ok := sm.sessions[keyspace]; ok {
		if err := session.Query("SELECT now() FROM system.local").Exec(); err == nil {
			return session, nil
		}
		session.Close()
	}

	session, err := createScyllaCluster(config).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("erreur création session pour %s: %v", keyspace, err)
	}

	sm.sessions[keyspace] = session
	log.Printf("✅ Nouvelle session ScyllaDB pour keyspace '%s' (rôle: %s)",
		keyspace, config.Username)
	return session, nil
}

func CloseScylla() {
	Scylla.mu.Lock()
	defer Scylla.mu.Unlock()

	for keyspace, session := range Scylla.sessions {
		session.Close()
		log.Printf("🔌 Session ScyllaDB fermée pour keyspace '%s'", keyspace)
	}
}

func sessionFor(name string) (*gocql.Session, error) {
	keyspace := os.Getenv("SCYLLA_KS_" + name + "_KEYSPACE")
	if keyspace == "" {
		return nil, fmt.Errorf("SCYLLA_KS_%s_KEYSPACE non configuré", name)
	}
	return Scylla.GetSession(keyspace)
}

func GetUsersSession() (*gocql.Session, error)    { return sessionFor(ksUsers) }
func GetProductsSession() (*gocql.Session, error) { return sessionFor(ksProducts) }
func GetOrdersSession() (*gocql.Session, error)   { return sessionFor(ksOrders) }

func connectRedis(ctx context.Context) {
	Redis = redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_HOST"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
	if err := Redis.Ping(ctx).Err(); err != nil {
		log.Fatal("❌ Erreur connexion Redis:", err)
	}
	log.Println("✅ Connecté à Redis")
}

func connectMinIO(ctx context.Context) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
		Secure: useSSL,
	})
	if err != nil {
		log.Fatal("❌ Erreur connexion MinIO:", err)
	}

	bucketName := os.Getenv("MINIO_BUCKET")
	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		log.Fatal("❌ Erreur vérification bucket MinIO:", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			log.Fatal("❌ Erreur création bucket MinIO:", err)
		}
		log.Println("🪣 Bucket créé :", bucketName)
	} else {
		log.Println("🪣 Bucket MinIO déjà présent :", bucketName)
	}

	MinIO = client
	log.Println("✅ Connecté à MinIO :", endpoint)
}
