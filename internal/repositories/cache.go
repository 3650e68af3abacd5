package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sundazed/mymusic/internal/models"
)

// CacheRepository stores external lookup responses with a TTL. Expired rows
// are treated as misses and purged lazily on read.
type CacheRepository struct {
	db *sql.DB
}

// NewCacheRepository creates a new CacheRepository with the given database connection
func NewCacheRepository(db *sql.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// Get retrieves a cached value. A missing or expired key returns (nil, false, nil).
func (r *CacheRepository) Get(key string) ([]byte, bool, error) {
	entry := models.CacheEntry{Key: key}
	err := r.db.QueryRow(`
		SELECT value, expires_at FROM cache WHERE key = ?
	`, key).Scan(&entry.Value, &entry.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache: %w", err)
	}

	if entry.Expired(time.Now()) {
		if err := r.Delete(key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	return entry.Value, true, nil
}

// Set stores a value under key for the given TTL, replacing any previous entry.
func (r *CacheRepository) Set(key string, value []byte, ttl time.Duration) error {
	entry := models.CacheEntry{
		Key:       key,
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, err := r.db.Exec(`
		INSERT INTO cache (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, entry.Key, entry.Value, entry.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}

	return nil
}

// Delete removes a cache entry. Deleting a missing key is a no-op.
func (r *CacheRepository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM cache WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Purge removes all expired entries and returns the number removed.
func (r *CacheRepository) Purge() (int, error) {
	result, err := r.db.Exec("DELETE FROM cache WHERE expires_at < ?", time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}
