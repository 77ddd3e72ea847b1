package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/serroba/url-shortener/internal/shortener"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type shortURLRow struct {
	Code      string    `gorm:"primaryKey"`
	LongURL   string    `gorm:"uniqueIndex;not null"`
	ShortURL  string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (shortURLRow) TableName() string {
	return "short_urls"
}

func (r shortURLRow) record() *shortener.URLRecord {
	return &shortener.URLRecord{
		Code:      shortener.Code(r.Code),
		LongURL:   r.LongURL,
		ShortURL:  r.ShortURL,
		CreatedAt: r.CreatedAt,
	}
}

// SQLiteStore is a gorm/SQLite implementation of shortener.Repository for
// single-node deployments and local development.
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the database at dsn and migrates the schema.
// Use "file::memory:?cache=shared" for an in-memory database.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&shortURLRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return NewSQLiteStore(db), nil
}

// NewSQLiteStore wraps an already opened gorm database.
func NewSQLiteStore(db *gorm.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Insert(ctx context.Context, record *shortener.URLRecord) error {
	row := shortURLRow{
		Code:      string(record.Code),
		LongURL:   record.LongURL,
		ShortURL:  record.ShortURL,
		CreatedAt: record.CreatedAt,
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicate(err) {
			return shortener.ErrUniqueConflict
		}

		return fmt.Errorf("%w: %w", shortener.ErrStoreUnavailable, err)
	}

	return nil
}

func (s *SQLiteStore) FindByCode(ctx context.Context, code shortener.Code) (*shortener.URLRecord, error) {
	return s.first(ctx, "code = ?", string(code))
}

func (s *SQLiteStore) FindByLongURL(ctx context.Context, longURL string) (*shortener.URLRecord, error) {
	return s.first(ctx, "long_url = ?", longURL)
}

func (s *SQLiteStore) first(ctx context.Context, cond string, arg string) (*shortener.URLRecord, error) {
	var row shortURLRow

	if err := s.db.WithContext(ctx).Where(cond, arg).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shortener.ErrNotFound
		}

		return nil, fmt.Errorf("%w: %w", shortener.ErrStoreUnavailable, err)
	}

	return row.record(), nil
}

// Ping checks database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

// Shutdown closes the underlying database handle.
func (s *SQLiteStore) Shutdown() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// isDuplicate reports a unique constraint failure. Older drivers do not
// translate the error, so the message is checked as well.
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Compile-time check.
var _ shortener.Repository = (*SQLiteStore)(nil)
