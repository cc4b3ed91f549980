package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nattapol/cert-portal/pkg/certportal"
	"github.com/nattapol/cert-portal/pkg/certportal/api"
	repopg "github.com/nattapol/cert-portal/pkg/certportal/repo/postgres"
	"github.com/nattapol/cert-portal/pkg/certportal/storage/s3"
)

type Config struct {
	Port            string `env:"PORT" env-default:"8080"`
	AdminJWTSecret  string `env:"ADMIN_JWT_SECRET" env-required:"true"`
	BucketPublicURL string `env:"BUCKET_PUBLIC_URL" env-required:"true"`
	DB              DbConfig
	S3              S3Config
}

type DbConfig struct {
	Port     uint16 `env:"PORTAL_PG_PORT" env-default:"5432"`
	Host     string `env:"PORTAL_PG_HOST" env-default:"localhost"`
	Name     string `env:"PORTAL_PG_NAME" env-default:"certportal_db"`
	User     string `env:"PORTAL_PG_USER" env-default:"certportal"`
	Password string `env:"PORTAL_PG_PASSWORD" env-default:"pwd"`
}

type S3Config struct {
	Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:"http://localhost:9000"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	BucketName      string `env:"AWS_S3_BUCKET" env-default:"certificates"`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	UsePathStyle    bool   `env:"AWS_S3_PATH_STYLE" env-default:"true"`
}

func (c DbConfig) toDatabaseUrl() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}
	return u.String()
}

func NewDbPool(ctx context.Context, dbConfig DbConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dbConfig.toDatabaseUrl())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

func main() {
	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	dbPool, err := NewDbPool(ctx, config.DB)
	if err != nil {
		slog.Error("Failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	blobStore, err := s3.New(s3.Config{
		Endpoint:        config.S3.Endpoint,
		AccessKeyID:     config.S3.AccessKeyID,
		SecretAccessKey: config.S3.SecretAccessKey,
		Bucket:          config.S3.BucketName,
		Region:          config.S3.Region,
		UsePathStyle:    config.S3.UsePathStyle,
	})
	if err != nil {
		slog.Error("Failed to initialize S3 backend", "err", err)
		os.Exit(1)
	}

	svc, err := certportal.New(
		certportal.WithRepository(repopg.NewWithPool(dbPool)),
		certportal.WithBlobStore(blobStore),
		certportal.WithBucketURL(config.BucketPublicURL),
	)
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	tokenAuth := jwtauth.New("HS256", []byte(config.AdminJWTSecret), nil)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.Port),
		Handler: api.NewRouter(svc, tokenAuth),
	}

	go func() {
		slog.Info("Certificate portal starting", "port", config.Port, "bucket_url", config.BucketPublicURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}

	slog.Info("Server exiting")
}
