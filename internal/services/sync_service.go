package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// SyncServiceImpl implements SyncService
type SyncServiceImpl struct {
	scanner MailboxScanner
	tokens  GmailTokenStore
	logger  *log.Logger // Optional - for debug logging
}

// GmailTokenStore tracks which users have a linked Gmail account.
type GmailTokenStore interface {
	HasToken(ctx context.Context, userID string) bool
	RevokeToken(ctx context.Context, userID string) error
}

// NewSyncService creates a new sync service
func NewSyncService(scanner MailboxScanner, tokens GmailTokenStore) *SyncServiceImpl {
	return &SyncServiceImpl{scanner: scanner, tokens: tokens}
}

// SetLogger sets the logger for debug output
func (s *SyncServiceImpl) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// Sync fetches candidates from the user's mailbox, reconciles them against
// the store and persists what is new. A scan failure aborts before any
// mutation: the store is exactly as it was and the error propagates
// unchanged. An empty candidate batch is a successful sync with zero new
// applications.
func (s *SyncServiceImpl) Sync(ctx context.Context, store *ApplicationStore) (SyncResult, error) {
	if store.UserID() == "" {
		return SyncResult{}, ErrUnauthenticated
	}

	candidates, err := s.scanner.FetchCandidates(ctx, store.UserID())
	if err != nil {
		return SyncResult{}, fmt.Errorf("mailbox scan: %w", err)
	}

	rec := Reconciler{UserID: store.UserID(), NewID: uuid.NewString}
	result := rec.Reconcile(store.Records(), candidates)
	if result.NewlyAdded == 0 {
		return SyncResult{}, nil
	}

	imported, err := store.Import(ctx, result.Accepted)
	if err != nil {
		return SyncResult{}, fmt.Errorf("persist imported applications: %w", err)
	}

	if s.logger != nil {
		s.logger.Printf("gmail sync: user=%s candidates=%d imported=%d", store.UserID(), len(candidates), len(imported))
	}
	return SyncResult{NewlyAdded: len(imported), Imported: imported}, nil
}

// Linked reports whether the user has a Gmail account linked.
func (s *SyncServiceImpl) Linked(ctx context.Context, userID string) bool {
	return s.tokens.HasToken(ctx, userID)
}

// Disconnect unlinks the user's Gmail account. Already-imported
// applications stay.
func (s *SyncServiceImpl) Disconnect(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	return s.tokens.RevokeToken(ctx, userID)
}
