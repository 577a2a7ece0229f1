package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rmenezes/jurisearch/internal/embedding"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Embedding EmbeddingConfig
	Search    SearchConfig
	Ingest    IngestConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type EmbeddingConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	BatchSize int
}

type SearchConfig struct {
	SemanticWeight float64
	SearchBreadth  int
	CacheTTL       time.Duration
}

type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
	PoolSize     int
	MaxRetries   int
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	batchSize, err := getEnvInt("EMBEDDING_BATCH_SIZE", 32)
	if err != nil {
		return nil, fmt.Errorf("invalid EMBEDDING_BATCH_SIZE: %w", err)
	}

	weight, err := getEnvFloat("SEARCH_SEMANTIC_WEIGHT", 0.7)
	if err != nil {
		return nil, fmt.Errorf("invalid SEARCH_SEMANTIC_WEIGHT: %w", err)
	}

	breadth, err := getEnvInt("SEARCH_HNSW_EF_SEARCH", 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SEARCH_HNSW_EF_SEARCH: %w", err)
	}

	cacheTTL, err := getEnvInt("SEARCH_CACHE_TTL_SECONDS", 300)
	if err != nil {
		return nil, fmt.Errorf("invalid SEARCH_CACHE_TTL_SECONDS: %w", err)
	}

	chunkSize, err := getEnvInt("CHUNK_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("invalid CHUNK_SIZE: %w", err)
	}

	chunkOverlap, err := getEnvInt("CHUNK_OVERLAP", 200)
	if err != nil {
		return nil, fmt.Errorf("invalid CHUNK_OVERLAP: %w", err)
	}

	poolSize, err := getEnvInt("INGEST_POOL_SIZE", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_POOL_SIZE: %w", err)
	}

	maxRetries, err := getEnvInt("INGEST_MAX_RETRIES", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_MAX_RETRIES: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Embedding: EmbeddingConfig{
			APIKey:    getEnv("EMBEDDING_API_KEY", ""),
			BaseURL:   getEnv("EMBEDDING_BASE_URL", ""),
			Model:     getEnv("EMBEDDING_MODEL", embedding.DefaultModel),
			BatchSize: batchSize,
		},
		Search: SearchConfig{
			SemanticWeight: weight,
			SearchBreadth:  breadth,
			CacheTTL:       time.Duration(cacheTTL) * time.Second,
		},
		Ingest: IngestConfig{
			ChunkSize:    chunkSize,
			ChunkOverlap: chunkOverlap,
			PoolSize:     poolSize,
			MaxRetries:   maxRetries,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if c.Search.SemanticWeight < 0 || c.Search.SemanticWeight > 1 {
		return fmt.Errorf("SEARCH_SEMANTIC_WEIGHT must be in [0,1], got %v", c.Search.SemanticWeight)
	}
	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)",
			c.Ingest.ChunkOverlap, c.Ingest.ChunkSize)
	}
	if _, ok := embedding.Dimensions(c.Embedding.Model); !ok {
		return fmt.Errorf("unknown embedding model %q", c.Embedding.Model)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}
