package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/rmoran/apptrack/internal/models"
)

// fakeRepo is an in-memory ApplicationRepository with injectable failures.
type fakeRepo struct {
	mu     sync.Mutex
	nextID int
	byUser map[string][]models.Application

	failCreate error
	failUpdate error
	failDelete error
	failList   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byUser: make(map[string][]models.Application)}
}

func (r *fakeRepo) List(ctx context.Context, userID string) ([]models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList != nil {
		return nil, r.failList
	}
	return append([]models.Application(nil), r.byUser[userID]...), nil
}

func (r *fakeRepo) Create(ctx context.Context, app models.Application) (models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return models.Application{}, r.failCreate
	}
	if app.ID == "" {
		r.nextID++
		app.ID = fmt.Sprintf("srv-%d", r.nextID)
	}
	r.byUser[app.UserID] = append(r.byUser[app.UserID], app)
	return app, nil
}

func (r *fakeRepo) CreateBatch(ctx context.Context, apps []models.Application) ([]models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return nil, r.failCreate
	}
	for _, app := range apps {
		r.byUser[app.UserID] = append(r.byUser[app.UserID], app)
	}
	return apps, nil
}

func (r *fakeRepo) Update(ctx context.Context, app models.Application) (models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return models.Application{}, r.failUpdate
	}
	list := r.byUser[app.UserID]
	for i := range list {
		if list[i].ID == app.ID {
			list[i] = app
			return app, nil
		}
	}
	return models.Application{}, ErrNotFound
}

func (r *fakeRepo) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDelete != nil {
		return r.failDelete
	}
	list := r.byUser[userID]
	for i := range list {
		if list[i].ID == id {
			r.byUser[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *fakeRepo) DeleteAll(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDelete != nil {
		return r.failDelete
	}
	r.byUser[userID] = nil
	return nil
}

// fakeScanner is a MailboxScanner returning canned candidates or an error.
type fakeScanner struct {
	candidates []models.Application
	err        error
	calls      int
}

func (f *fakeScanner) FetchCandidates(ctx context.Context, userID string) ([]models.Application, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Application(nil), f.candidates...), nil
}

// fakeTokens is a GmailTokenStore over a set.
type fakeTokens struct {
	mu     sync.Mutex
	linked map[string]bool
}

func newFakeTokens(linked ...string) *fakeTokens {
	f := &fakeTokens{linked: make(map[string]bool)}
	for _, u := range linked {
		f.linked[u] = true
	}
	return f
}

func (f *fakeTokens) HasToken(ctx context.Context, userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.linked[userID]
}

func (f *fakeTokens) RevokeToken(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.linked, userID)
	return nil
}
