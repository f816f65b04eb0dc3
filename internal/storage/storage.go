// Package storage provides the MySQL-backed store for cache entries and
// rate-limit counters. It satisfies cache.Store so deployments with a
// database share cached analyses across instances.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"walletscore/internal/config"
)

// DB wraps the GORM database connection
type DB struct {
	conn *gorm.DB
	log  *logrus.Logger
}

// New creates a new database connection with GORM
func New(cfg *config.Config, log *logrus.Logger) (*DB, error) {
	gormLogger := logger.New(
		&gormLogAdapter{log: log},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	conn, err := gorm.Open(mysql.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.DatabaseMaxConns)
	sqlDB.SetMaxIdleConns(cfg.DatabaseMaxConns / 2)
	sqlDB.SetConnMaxIdleTime(cfg.DatabaseMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("Database connection established")

	return &DB{conn: conn, log: log}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate runs GORM auto-migration (for development only)
func (db *DB) AutoMigrate() error {
	return db.conn.AutoMigrate(
		&CacheEntry{},
	)
}

// Ping verifies the connection is still alive.
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Get retrieves a live cache entry. Expired rows are deleted on read.
func (db *DB) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry CacheEntry
	result := db.conn.WithContext(ctx).Where("cache_key = ?", key).First(&entry)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if result.Error != nil {
		return nil, false, result.Error
	}
	if entry.ExpiresTS <= time.Now().Unix() {
		db.conn.WithContext(ctx).Delete(&CacheEntry{}, "cache_key = ?", key)
		return nil, false, nil
	}
	return entry.Value, true, nil
}

// Set inserts or replaces a cache entry with the given TTL.
func (db *DB) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	entry := CacheEntry{
		CacheKey:  key,
		Value:     value,
		ExpiresTS: now.Add(ttl).Unix(),
		UpdatedTS: now.Unix(),
	}
	return db.conn.WithContext(ctx).Save(&entry).Error
}

// Delete removes a cache entry
func (db *DB) Delete(ctx context.Context, key string) error {
	return db.conn.WithContext(ctx).Delete(&CacheEntry{}, "cache_key = ?", key).Error
}

// Exists reports whether a live cache entry is present
func (db *DB) Exists(ctx context.Context, key string) (bool, error) {
	var count int64
	result := db.conn.WithContext(ctx).
		Model(&CacheEntry{}).
		Where("cache_key = ? AND expires_ts > ?", key, time.Now().Unix()).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// PurgeExpired deletes expired rows in bulk. Called periodically so the
// table does not accumulate dead entries between reads.
func (db *DB) PurgeExpired(ctx context.Context) (int64, error) {
	result := db.conn.WithContext(ctx).
		Delete(&CacheEntry{}, "expires_ts <= ?", time.Now().Unix())
	return result.RowsAffected, result.Error
}

// gormLogAdapter adapts logrus to GORM's logger interface
type gormLogAdapter struct {
	log *logrus.Logger
}

func (l *gormLogAdapter) Printf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}
