// Package backend opens the cache store selected by configuration.
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/caarlos0/env/v11"
	_ "modernc.org/sqlite"

	"github.com/vango-dev/dippy/internal/config"
	"github.com/vango-dev/dippy/internal/errors"
	"github.com/vango-dev/dippy/pkg/cache"
)

// credentials are read from the standard AWS environment variables.
type credentials struct {
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	SessionToken    string `env:"AWS_SESSION_TOKEN"`
}

// Open returns the store for cfg. SQLite schemas are created on demand.
func Open(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (cache.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "backend", "backend", cfg.Backend)

	switch cfg.Backend {
	case "", config.BackendMemory:
		logger.Debug("using in-memory cache")
		return cache.NewMemoryStore(), nil

	case config.BackendSQLite:
		return openSQLite(ctx, cfg, logger)

	case config.BackendS3:
		client, err := newS3Client(cfg)
		if err != nil {
			return nil, err
		}
		logger.Debug("using s3 cache", "bucket", cfg.Bucket, "prefix", cfg.Prefix)
		return cache.NewS3Store(client, cfg.Bucket, cfg.Prefix), nil

	default:
		return nil, errors.New("E040").
			WithDetailf("Unknown cache backend %q", cfg.Backend)
	}
}

func openSQLite(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (cache.Store, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, errors.New("E040").Wrap(fmt.Errorf("open sqlite %s: %w", cfg.Path, err))
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	opts := []cache.SQLStoreOption{
		cache.WithSQLDialect(cache.DialectSQLite),
		cache.WithSQLOwnership(),
	}
	if cfg.Table != "" {
		opts = append(opts, cache.WithSQLTableName(cfg.Table))
	}
	store := cache.NewSQLStore(db, opts...)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, errors.New("E040").Wrap(err)
	}
	logger.Debug("using sqlite cache", "path", cfg.Path, "table", cfg.Table)
	return store, nil
}

func newS3Client(cfg config.CacheConfig) (*s3.Client, error) {
	var creds credentials
	if err := env.Parse(&creds); err != nil {
		return nil, errors.New("E123").Wrap(fmt.Errorf("parse env: %w", err))
	}

	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.PathStyle,
		Credentials:  aws.AnonymousCredentials{},
	}
	if creds.AccessKeyID != "" {
		opts.Credentials = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     creds.AccessKeyID,
				SecretAccessKey: creds.SecretAccessKey,
				SessionToken:    creds.SessionToken,
				Source:          "environment",
			}, nil
		})
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts), nil
}
