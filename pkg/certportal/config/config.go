package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-chi/jwtauth"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nattapol/cert-portal/pkg/certportal"
	repomemory "github.com/nattapol/cert-portal/pkg/certportal/repo/memory"
	repopg "github.com/nattapol/cert-portal/pkg/certportal/repo/postgres"
	memorystorage "github.com/nattapol/cert-portal/pkg/certportal/storage/memory"
	s3storage "github.com/nattapol/cert-portal/pkg/certportal/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadServerConfig loads configuration from the process environment.
func LoadServerConfig() (*ServerConfig, error) {
	return Load(WithEnv(""))
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Environment:  "development",
		DatabaseType: "memory",
		StorageType:  "memory",
	}
}

// ServerConfig represents server configuration for the certificate portal
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"

	// Storage configuration
	StorageType string // "memory", "s3"
	S3          s3storage.Config

	// BucketURL is the public base URL of the object store, stamped onto
	// newly created events as storage_bucket_url.
	BucketURL string

	// AdminJWTSecret signs and verifies admin tokens (HS256)
	AdminJWTSecret string
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if c.StorageType != "memory" && c.StorageType != "s3" {
		return errors.New("storage_type must be 'memory' or 's3'")
	}

	if c.StorageType == "s3" && c.S3.Bucket == "" {
		return errors.New("s3 bucket is required when using s3 storage")
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService() (certportal.Service, error) {
	repo, err := c.buildRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	store, err := c.buildStorageBackend()
	if err != nil {
		return nil, fmt.Errorf("failed to build storage backend: %w", err)
	}

	return certportal.New(
		certportal.WithRepository(repo),
		certportal.WithBlobStore(store),
		certportal.WithBucketURL(c.BucketURL),
	)
}

// BuildTokenAuth creates the JWT verifier for admin routes
func (c *ServerConfig) BuildTokenAuth() (*jwtauth.JWTAuth, error) {
	if c.AdminJWTSecret == "" {
		return nil, errors.New("admin JWT secret is required")
	}
	return jwtauth.New("HS256", []byte(c.AdminJWTSecret), nil), nil
}

func (c *ServerConfig) buildRepository() (certportal.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return repomemory.New(), nil
	case "postgres":
		pool, err := pgxpool.New(context.Background(), c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

func (c *ServerConfig) buildStorageBackend() (certportal.BlobStore, error) {
	switch c.StorageType {
	case "memory":
		return memorystorage.New(), nil
	case "s3":
		return s3storage.New(c.S3)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}
}
