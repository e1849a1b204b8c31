package database

import (
	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/kvstore"
)

var healthKey = []byte("db_health")

// Health tracks whether the database was shut down properly.
type Health struct {
	store kvstore.KVStore
}

// NewHealth creates a Health tracker on the health realm of the given store.
func NewHealth(store kvstore.KVStore) (*Health, error) {
	realm, err := store.WithRealm([]byte{PrefixHealth})
	if err != nil {
		return nil, errors.Errorf("failed to open the health realm: %w", err)
	}

	return &Health{store: realm}, nil
}

// Store returns the realm the markers are stored in.
func (h *Health) Store() kvstore.KVStore {
	return h.store
}

// MarkUnhealthy marks the database as not healthy, meaning that it wasn't shutdown properly.
func (h *Health) MarkUnhealthy() error {
	if err := h.store.Set(healthKey, []byte{}); err != nil {
		return errors.Errorf("failed to set database health state: %w", err)
	}

	return nil
}

// MarkHealthy marks the database as healthy, respectively correctly closed.
func (h *Health) MarkHealthy() error {
	if err := h.store.Delete(healthKey); err != nil && !errors.Is(err, kvstore.ErrKeyNotFound) {
		return errors.Errorf("failed to set database health state: %w", err)
	}

	return nil
}

// IsUnhealthy tells whether the database is unhealthy, meaning not shutdown properly.
func (h *Health) IsUnhealthy() (bool, error) {
	contains, err := h.store.Has(healthKey)
	if err != nil {
		return false, errors.Errorf("failed to read database health state: %w", err)
	}

	return contains, nil
}
