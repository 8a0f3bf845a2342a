package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLiteStore is a SQLite-backed KV implementation built on GORM with the
// pure-Go driver. Suitable for single-node deployments that need summaries
// to survive restarts without an external service.
type SQLiteStore struct {
	db *gorm.DB
}

type kvRecord struct {
	Key       string `gorm:"primaryKey;column:key"`
	Data      []byte `gorm:"column:data"`
	Metadata  string `gorm:"column:metadata"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (kvRecord) TableName() string { return "promptfit_kv" }

// NewSQLiteStore opens (and migrates) a SQLite-backed store at cfg.Path.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite at %s: %w", cfg.Path, err)
	}
	if err := db.AutoMigrate(&kvRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

var _ KV = (*SQLiteStore)(nil)

// Close closes the underlying connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	var rec kvRecord
	err := s.db.WithContext(ctx).First(&rec, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		Data:      rec.Data,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if rec.Metadata != "" {
		if err := json.Unmarshal([]byte(rec.Metadata), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", key, err)
		}
	}
	return entry, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, data []byte, metadata map[string]string) error {
	if key == "" {
		return ErrInvalidInput
	}

	meta := ""
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		meta = string(raw)
	}

	rec := kvRecord{Key: key, Data: data, Metadata: meta}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "metadata", "updated_at"}),
	}).Create(&rec).Error
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&kvRecord{}, "key = ?", key)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
