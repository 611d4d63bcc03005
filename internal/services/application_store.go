package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/rmoran/apptrack/internal/models"
)

// ApplicationStore holds the in-memory authoritative collection of
// application records for one user. Every mutation is confirmed-state only:
// the remote repository acknowledges first, and only then does the local
// collection change. A failed remote call leaves the collection exactly as
// it was.
//
// The user identity is an explicit constructor argument, not ambient state.
// A store built without one refuses every mutation with ErrUnauthenticated.
type ApplicationStore struct {
	repo   ApplicationRepository
	userID string

	// opMu serializes mutations end to end, remote call included, so two
	// overlapping updates to one record cannot race into a lost update.
	opMu sync.Mutex

	mu      sync.Mutex
	records []models.Application
}

// NewApplicationStore creates a store for the given user. userID may be
// empty, in which case all operations fail with ErrUnauthenticated.
func NewApplicationStore(repo ApplicationRepository, userID string) *ApplicationStore {
	return &ApplicationStore{repo: repo, userID: userID}
}

// UserID returns the owning user id.
func (s *ApplicationStore) UserID() string {
	return s.userID
}

func (s *ApplicationStore) authed() error {
	if s.userID == "" {
		return ErrUnauthenticated
	}
	return nil
}

// Load fetches the remote snapshot and replaces the local collection with
// it. Used on initial load and resync; it is a replacement, not a merge.
func (s *ApplicationStore) Load(ctx context.Context) error {
	if err := s.authed(); err != nil {
		return err
	}
	records, err := s.repo.List(ctx, s.userID)
	if err != nil {
		return fmt.Errorf("load applications: %w", err)
	}
	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}

// ReplaceAll sets the collection from an already-fetched remote snapshot.
func (s *ApplicationStore) ReplaceAll(records []models.Application) error {
	if err := s.authed(); err != nil {
		return err
	}
	s.mu.Lock()
	s.records = append([]models.Application(nil), records...)
	s.mu.Unlock()
	return nil
}

// Records returns a copy of the current collection.
func (s *ApplicationStore) Records() []models.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Application(nil), s.records...)
}

// Add sends the record to the repository, which assigns identity, and
// appends the confirmed result locally.
func (s *ApplicationStore) Add(ctx context.Context, rec models.Application) (models.Application, error) {
	if err := s.authed(); err != nil {
		return models.Application{}, err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	rec.ID = ""
	rec.UserID = s.userID
	if rec.Source == "" {
		rec.Source = models.SourceManual
	}
	rec.Status = models.NormalizeStatus(string(rec.Status))

	created, err := s.repo.Create(ctx, rec)
	if err != nil {
		return models.Application{}, err
	}

	s.mu.Lock()
	s.records = append(s.records, created)
	s.mu.Unlock()
	return created, nil
}

// Update applies a partial update to the record with the given id. The
// result reflects the remote-confirmed version, not an optimistic guess.
func (s *ApplicationStore) Update(ctx context.Context, id string, patch ApplicationPatch) (models.Application, error) {
	if err := s.authed(); err != nil {
		return models.Application{}, err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.Application{}, ErrNotFound
	}
	next := s.records[idx]
	s.mu.Unlock()

	if patch.Company != nil {
		next.Company = *patch.Company
	}
	if patch.Position != nil {
		next.Position = *patch.Position
	}
	if patch.AppliedAt != nil {
		next.AppliedAt = *patch.AppliedAt
	}
	if patch.Status != nil {
		next.Status = models.NormalizeStatus(*patch.Status)
	}
	if patch.ResumeID != nil {
		next.ResumeID = *patch.ResumeID
	}
	if patch.Notes != nil {
		next.Notes = *patch.Notes
	}

	confirmed, err := s.repo.Update(ctx, next)
	if err != nil {
		return models.Application{}, err
	}

	s.mu.Lock()
	// re-resolve: the collection may have shifted while the call was out
	if idx := s.indexLocked(id); idx >= 0 {
		s.records[idx] = confirmed
	}
	s.mu.Unlock()
	return confirmed, nil
}

// Delete removes a record after remote confirmation.
func (s *ApplicationStore) Delete(ctx context.Context, id string) error {
	if err := s.authed(); err != nil {
		return err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.indexLocked(id) < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.mu.Unlock()

	if err := s.repo.Delete(ctx, s.userID, id); err != nil {
		return err
	}

	s.mu.Lock()
	if idx := s.indexLocked(id); idx >= 0 {
		s.records = append(s.records[:idx], s.records[idx+1:]...)
	}
	s.mu.Unlock()
	return nil
}

// ClearAll empties the whole collection after remote confirmation.
// Irreversible.
func (s *ApplicationStore) ClearAll(ctx context.Context) error {
	if err := s.authed(); err != nil {
		return err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()
	if err := s.repo.DeleteAll(ctx, s.userID); err != nil {
		return err
	}
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
	return nil
}

// Import persists reconciler-accepted records as one batch and appends them
// locally once the repository confirms. A batch failure leaves the
// collection untouched.
func (s *ApplicationStore) Import(ctx context.Context, accepted []models.Application) ([]models.Application, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()
	if len(accepted) == 0 {
		return nil, nil
	}
	created, err := s.repo.CreateBatch(ctx, accepted)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.records = append(s.records, created...)
	s.mu.Unlock()
	return created, nil
}

// indexLocked finds a record by id. Caller holds s.mu.
func (s *ApplicationStore) indexLocked(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}
