package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rmoran/apptrack/internal/db"
	"github.com/rmoran/apptrack/internal/models"
	"github.com/rmoran/apptrack/internal/storage"
)

// DefaultDownloadTTL is how long presigned resume download links stay
// valid.
const DefaultDownloadTTL = 15 * time.Minute

// ResumeServiceImpl implements ResumeService
type ResumeServiceImpl struct {
	store       *db.Store
	blobs       BlobStorage
	downloadTTL time.Duration
}

// NewResumeService creates a new resume service
func NewResumeService(store *db.Store, blobs BlobStorage) *ResumeServiceImpl {
	return &ResumeServiceImpl{store: store, blobs: blobs, downloadTTL: DefaultDownloadTTL}
}

// Upload streams the file into blob storage and records its metadata. The
// metadata row is written only after the blob landed; a failed row write
// cleans the blob up again so neither side leaks.
func (s *ResumeServiceImpl) Upload(ctx context.Context, userID, name, version, contentType string, size int64, body io.Reader) (models.Resume, error) {
	if userID == "" {
		return models.Resume{}, ErrUnauthenticated
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Resume{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}

	resume := models.Resume{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       name,
		Version:    version,
		UploadedAt: time.Now().UTC(),
		SizeBytes:  size,
	}
	resume.StorageKey = storage.BuildResumeKey(userID, resume.ID, name)

	if err := s.blobs.Put(ctx, resume.StorageKey, contentType, body); err != nil {
		return models.Resume{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	if err := s.store.InsertResume(ctx, resume); err != nil {
		_ = s.blobs.Delete(ctx, resume.StorageKey)
		return models.Resume{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return resume, nil
}

// List returns the user's resumes, newest first.
func (s *ResumeServiceImpl) List(ctx context.Context, userID string) ([]models.Resume, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	resumes, err := s.store.ListResumes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return resumes, nil
}

// Delete removes the blob and then the metadata row. Applications that
// reference the resume keep their reference; dangling ids render as
// "None".
func (s *ResumeServiceImpl) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	resume, err := s.store.GetResume(ctx, userID, id)
	if errors.Is(err, db.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	if err := s.blobs.Delete(ctx, resume.StorageKey); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	if err := s.store.DeleteResume(ctx, userID, id); err != nil && !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return nil
}

// DownloadURL returns a time-limited URL for the resume file.
func (s *ResumeServiceImpl) DownloadURL(ctx context.Context, userID, id string) (string, error) {
	if userID == "" {
		return "", ErrUnauthenticated
	}
	resume, err := s.store.GetResume(ctx, userID, id)
	if errors.Is(err, db.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	url, err := s.blobs.PresignGet(ctx, resume.StorageKey, s.downloadTTL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return url, nil
}
