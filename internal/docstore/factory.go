package docstore

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ticketdesk/internal/config"
	fsstore "ticketdesk/internal/infra/docstore/fs"
	memorystore "ticketdesk/internal/infra/docstore/memory"
	postgresstore "ticketdesk/internal/infra/docstore/postgres"
	redisstore "ticketdesk/internal/infra/docstore/redis"
	s3store "ticketdesk/internal/infra/docstore/s3"
	sqlitestore "ticketdesk/internal/infra/docstore/sqlite"
)

// NewMemory returns an in-memory medium suitable for tests.
func NewMemory() Medium { return memorystore.New() }

// Open selects a Medium implementation from cfg and wraps it with the
// configured quota. The caller owns the returned medium and must Close it.
func Open(ctx context.Context, cfg config.Storage, logger *zap.Logger) (Medium, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	medium, err := openDriver(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("document medium opened",
		zap.String("driver", string(medium.Driver())),
		zap.Int64("quota_bytes", cfg.QuotaBytes),
	)
	if cfg.QuotaBytes > 0 {
		return NewQuotaMedium(medium, cfg.QuotaBytes), nil
	}
	return medium, nil
}

func openDriver(ctx context.Context, cfg config.Storage) (Medium, error) {
	driver := strings.ToLower(cfg.Driver)
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverMemory:
		return memorystore.New(), nil
	case DriverFilesystem:
		return fsstore.New(cfg.FSRoot)
	case DriverSQLite:
		return sqlitestore.New(cfg.SQLitePath)
	case DriverPostgres:
		return postgresstore.New(ctx, cfg.PostgresDSN)
	case DriverS3:
		return s3store.New(ctx, s3store.Config{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			PathStyle:       cfg.S3PathStyle,
		})
	case DriverRedis:
		return redisstore.New(ctx, redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
