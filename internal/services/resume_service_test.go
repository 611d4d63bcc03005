package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBlobs is a BlobStorage over a map with injectable failures.
type fakeBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte

	failPut    error
	failDelete error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{blobs: make(map[string][]byte)}
}

func (f *fakeBlobs) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	if f.failPut != nil {
		return f.failPut
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.blobs[key] = data
	f.mu.Unlock()
	return nil
}

func (f *fakeBlobs) Delete(ctx context.Context, key string) error {
	if f.failDelete != nil {
		return f.failDelete
	}
	f.mu.Lock()
	delete(f.blobs, key)
	f.mu.Unlock()
	return nil
}

func (f *fakeBlobs) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.blobs[key]; !ok {
		return "", errors.New("no such blob")
	}
	return "https://blobs.test/" + key, nil
}

func (f *fakeBlobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blobs)
}

func TestResume_UploadAndList(t *testing.T) {
	store := openTestStore(t)
	seedUser(t, store, "u1")
	blobs := newFakeBlobs()
	svc := NewResumeService(store, blobs)
	ctx := context.Background()

	resume, err := svc.Upload(ctx, "u1", "resume.pdf", "v2", "application/pdf", 4, strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.NotEmpty(t, resume.ID)
	assert.Equal(t, "u1", resume.UserID)
	assert.Equal(t, "resume.pdf", resume.Name)
	assert.Contains(t, resume.StorageKey, resume.ID)
	assert.Equal(t, 1, blobs.count())

	listed, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, resume.ID, listed[0].ID)

	other, err := svc.List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other, "resumes are scoped per user")
}

func TestResume_UploadValidation(t *testing.T) {
	svc := NewResumeService(openTestStore(t), newFakeBlobs())
	ctx := context.Background()

	_, err := svc.Upload(ctx, "", "resume.pdf", "", "application/pdf", 0, strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Upload(ctx, "u1", "   ", "", "application/pdf", 0, strings.NewReader(""))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResume_UploadBlobFailure(t *testing.T) {
	blobs := newFakeBlobs()
	blobs.failPut = errors.New("bucket down")
	svc := NewResumeService(openTestStore(t), blobs)

	_, err := svc.Upload(context.Background(), "u1", "resume.pdf", "", "application/pdf", 4, strings.NewReader("%PDF"))
	assert.ErrorIs(t, err, ErrRemoteUnavailable)

	listed, listErr := svc.List(context.Background(), "u1")
	require.NoError(t, listErr)
	assert.Empty(t, listed, "no metadata row without a blob")
}

func TestResume_Delete(t *testing.T) {
	store := openTestStore(t)
	seedUser(t, store, "u1")
	blobs := newFakeBlobs()
	svc := NewResumeService(store, blobs)
	ctx := context.Background()

	resume, err := svc.Upload(ctx, "u1", "resume.pdf", "", "application/pdf", 4, strings.NewReader("%PDF"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "u1", resume.ID))
	assert.Equal(t, 0, blobs.count())

	listed, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, listed)

	assert.ErrorIs(t, svc.Delete(ctx, "u1", resume.ID), ErrNotFound)
}

func TestResume_DeleteOtherUsersResume(t *testing.T) {
	store := openTestStore(t)
	seedUser(t, store, "u1")
	svc := NewResumeService(store, newFakeBlobs())
	ctx := context.Background()

	resume, err := svc.Upload(ctx, "u1", "resume.pdf", "", "application/pdf", 4, strings.NewReader("%PDF"))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "u2", resume.ID), ErrNotFound)

	listed, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestResume_DownloadURL(t *testing.T) {
	store := openTestStore(t)
	seedUser(t, store, "u1")
	svc := NewResumeService(store, newFakeBlobs())
	ctx := context.Background()

	resume, err := svc.Upload(ctx, "u1", "resume.pdf", "", "application/pdf", 4, strings.NewReader("%PDF"))
	require.NoError(t, err)

	url, err := svc.DownloadURL(ctx, "u1", resume.ID)
	require.NoError(t, err)
	assert.Contains(t, url, resume.StorageKey)

	_, err = svc.DownloadURL(ctx, "u1", "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.DownloadURL(ctx, "", resume.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
