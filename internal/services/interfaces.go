package services

import (
	"context"
	"io"
	"time"

	"github.com/rmoran/apptrack/internal/models"
)

// ApplicationRepository is the remote persistence collaborator for
// application records. It is the source of truth: identity is assigned
// here, and local state only changes after a repository call succeeds.
type ApplicationRepository interface {
	List(ctx context.Context, userID string) ([]models.Application, error)
	Create(ctx context.Context, app models.Application) (models.Application, error)
	CreateBatch(ctx context.Context, apps []models.Application) ([]models.Application, error)
	Update(ctx context.Context, app models.Application) (models.Application, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteAll(ctx context.Context, userID string) error
}

// MailboxScanner produces candidate application records from the user's
// linked mailbox. Extraction already happened; candidates carry company,
// position, status, origin email id and confidence, but no identity.
type MailboxScanner interface {
	FetchCandidates(ctx context.Context, userID string) ([]models.Application, error)
}

// BlobStorage stores resume file bytes.
type BlobStorage interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// AuthService handles accounts and sessions.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (models.User, string, error)
	Login(ctx context.Context, email, password string) (models.User, string, error)
	Logout(ctx context.Context, token string) error
	UserFromToken(ctx context.Context, token string) (models.User, error)
}

// ResumeService handles resume uploads and metadata.
type ResumeService interface {
	Upload(ctx context.Context, userID, name, version, contentType string, size int64, body io.Reader) (models.Resume, error)
	List(ctx context.Context, userID string) ([]models.Resume, error)
	Delete(ctx context.Context, userID, id string) error
	DownloadURL(ctx context.Context, userID, id string) (string, error)
}

// SyncService drives the Gmail import: scan, reconcile, persist.
type SyncService interface {
	Sync(ctx context.Context, store *ApplicationStore) (SyncResult, error)
	Linked(ctx context.Context, userID string) bool
	Disconnect(ctx context.Context, userID string) error
}

// SyncResult reports the outcome of one sync invocation. Zero NewlyAdded
// with a nil error means the mailbox held nothing new, which is an ordinary
// outcome, not a failure.
type SyncResult struct {
	NewlyAdded int                  `json:"newly_added"`
	Imported   []models.Application `json:"imported"`
}

// ApplicationPatch carries the mutable fields of a partial update. Nil
// fields are left unchanged; id and user id are never patchable.
type ApplicationPatch struct {
	Company   *string
	Position  *string
	AppliedAt *time.Time
	Status    *string
	ResumeID  *string
	Notes     *string
}
