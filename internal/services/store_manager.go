package services

import (
	"context"
	"sync"
)

// StoreManager hands out one ApplicationStore per user and keeps it for the
// lifetime of the process. The store is loaded from the repository snapshot
// on first access.
type StoreManager struct {
	repo ApplicationRepository

	mu     sync.Mutex
	stores map[string]*ApplicationStore
}

// NewStoreManager creates a new store manager
func NewStoreManager(repo ApplicationRepository) *StoreManager {
	return &StoreManager{
		repo:   repo,
		stores: make(map[string]*ApplicationStore),
	}
}

// StoreFor returns the user's store, loading the remote snapshot on first
// access.
func (m *StoreManager) StoreFor(ctx context.Context, userID string) (*ApplicationStore, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	m.mu.Lock()
	store, ok := m.stores[userID]
	m.mu.Unlock()
	if ok {
		return store, nil
	}

	store = NewApplicationStore(m.repo, userID)
	if err := store.Load(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	// another request may have raced us here; keep the first one
	if existing, ok := m.stores[userID]; ok {
		store = existing
	} else {
		m.stores[userID] = store
	}
	m.mu.Unlock()
	return store, nil
}

// Drop forgets the user's store, forcing a fresh snapshot on next access.
func (m *StoreManager) Drop(userID string) {
	m.mu.Lock()
	delete(m.stores, userID)
	m.mu.Unlock()
}
