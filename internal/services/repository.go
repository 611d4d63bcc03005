package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rmoran/apptrack/internal/db"
	"github.com/rmoran/apptrack/internal/models"
)

// ApplicationRepositoryImpl implements ApplicationRepository over the
// SQLite store, translating storage errors into the service taxonomy.
type ApplicationRepositoryImpl struct {
	store *db.Store
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(store *db.Store) *ApplicationRepositoryImpl {
	return &ApplicationRepositoryImpl{store: store}
}

func translateStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, db.ErrDuplicate):
		return fmt.Errorf("%w: duplicate record", ErrRemoteRejected)
	default:
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
}

func (r *ApplicationRepositoryImpl) List(ctx context.Context, userID string) ([]models.Application, error) {
	apps, err := r.store.ListApplications(ctx, userID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return apps, nil
}

// Create assigns identity when the record carries none and persists it.
func (r *ApplicationRepositoryImpl) Create(ctx context.Context, app models.Application) (models.Application, error) {
	if app.UserID == "" {
		return models.Application{}, fmt.Errorf("%w: missing user id", ErrRemoteRejected)
	}
	if app.Company == "" || app.Position == "" {
		return models.Application{}, fmt.Errorf("%w: company and position are required", ErrRemoteRejected)
	}
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if err := r.store.InsertApplication(ctx, app); err != nil {
		return models.Application{}, translateStoreError(err)
	}
	return app, nil
}

// CreateBatch persists the records in one transaction; identity must
// already be assigned (the reconciler does that).
func (r *ApplicationRepositoryImpl) CreateBatch(ctx context.Context, apps []models.Application) ([]models.Application, error) {
	if err := r.store.InsertApplications(ctx, apps); err != nil {
		return nil, translateStoreError(err)
	}
	return apps, nil
}

func (r *ApplicationRepositoryImpl) Update(ctx context.Context, app models.Application) (models.Application, error) {
	if err := r.store.UpdateApplication(ctx, app); err != nil {
		return models.Application{}, translateStoreError(err)
	}
	return app, nil
}

func (r *ApplicationRepositoryImpl) Delete(ctx context.Context, userID, id string) error {
	return translateStoreError(r.store.DeleteApplication(ctx, userID, id))
}

func (r *ApplicationRepositoryImpl) DeleteAll(ctx context.Context, userID string) error {
	_, err := r.store.DeleteAllApplications(ctx, userID)
	return translateStoreError(err)
}
