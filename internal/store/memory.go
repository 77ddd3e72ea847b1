package store

import (
	"context"
	"sync"

	"github.com/serroba/url-shortener/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu     sync.RWMutex
	byCode map[shortener.Code]shortener.URLRecord
	byLong map[string]shortener.Code
}

// NewMemoryStore creates a new in-memory URL store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byCode: make(map[shortener.Code]shortener.URLRecord),
		byLong: make(map[string]shortener.Code),
	}
}

func (m *MemoryStore) Insert(_ context.Context, record *shortener.URLRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byCode[record.Code]; ok {
		return shortener.ErrUniqueConflict
	}

	if _, ok := m.byLong[record.LongURL]; ok {
		return shortener.ErrUniqueConflict
	}

	m.byCode[record.Code] = *record
	m.byLong[record.LongURL] = record.Code

	return nil
}

func (m *MemoryStore) FindByCode(_ context.Context, code shortener.Code) (*shortener.URLRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byCode[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return &record, nil
}

func (m *MemoryStore) FindByLongURL(_ context.Context, longURL string) (*shortener.URLRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code, ok := m.byLong[longURL]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	record := m.byCode[code]

	return &record, nil
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.byCode)
}

// Compile-time check.
var _ shortener.Repository = (*MemoryStore)(nil)
