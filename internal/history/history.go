// Package history keeps a local SQLite record of signatures produced by the
// device.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultListLimit is used by List when limit is not positive.
const DefaultListLimit = 20

var ErrEmptySignature = errors.New("signature cannot be empty")

type Store struct {
	db *gorm.DB
}

// Open opens or creates the database at path and migrates its schema.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	if err := db.AutoMigrate(&RecordDTO{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database schema: %w", err)
	}
	return &Store{db: db}, nil
}

type RecordDTO struct {
	ID        string    `gorm:"column:id;primaryKey"`
	RequestID string    `gorm:"column:request_id;not null"`
	Account   string    `gorm:"column:account"`
	Path      string    `gorm:"column:path;not null"`
	Hash      string    `gorm:"column:hash;not null;index"`
	Signature string    `gorm:"column:signature;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index"`
}

func (RecordDTO) TableName() string {
	return "signatures"
}

// Record stores a produced signature. account may be empty when the path was
// given directly.
func (s *Store) Record(requestID, account, path, hashHex, signatureHex string) (*RecordDTO, error) {
	if signatureHex == "" {
		return nil, ErrEmptySignature
	}

	dto := RecordDTO{
		ID:        uuid.NewString(),
		RequestID: requestID,
		Account:   account,
		Path:      path,
		Hash:      hashHex,
		Signature: signatureHex,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.Create(&dto).Error; err != nil {
		return nil, fmt.Errorf("failed to record signature: %w", err)
	}
	return &dto, nil
}

// List returns the most recent records, newest first.
func (s *Store) List(limit int) ([]RecordDTO, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var records []RecordDTO
	if err := s.db.Order("created_at DESC, rowid DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list signatures: %w", err)
	}
	return records, nil
}

// FindByHash returns every record for a hash, newest first.
func (s *Store) FindByHash(hashHex string) ([]RecordDTO, error) {
	var records []RecordDTO
	if err := s.db.Where("hash = ?", hashHex).Order("created_at DESC, rowid DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to find signatures: %w", err)
	}
	return records, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
