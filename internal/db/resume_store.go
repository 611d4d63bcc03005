package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rmoran/apptrack/internal/models"
)

const resumeColumns = "id, user_id, name, version, storage_key, uploaded_at, size_bytes"

func scanResume(row interface{ Scan(...any) error }) (models.Resume, error) {
	var r models.Resume
	var uploadedAt int64
	err := row.Scan(&r.ID, &r.UserID, &r.Name, &r.Version, &r.StorageKey, &uploadedAt, &r.SizeBytes)
	if err != nil {
		return models.Resume{}, err
	}
	r.UploadedAt = time.Unix(uploadedAt, 0).UTC()
	return r, nil
}

// InsertResume persists resume metadata after the file landed in storage.
func (s *Store) InsertResume(ctx context.Context, r models.Resume) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO resumes (`+resumeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Name, r.Version, r.StorageKey, r.UploadedAt.Unix(), r.SizeBytes)
	if err != nil {
		return fmt.Errorf("insert resume: %w", err)
	}
	return nil
}

// ListResumes returns the user's resumes, newest upload first.
func (s *Store) ListResumes(ctx context.Context, userID string) ([]models.Resume, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+resumeColumns+" FROM resumes WHERE user_id = ? ORDER BY uploaded_at DESC, id", userID)
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	defer rows.Close()

	resumes := make([]models.Resume, 0, 8)
	for rows.Next() {
		r, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resume: %w", err)
		}
		resumes = append(resumes, r)
	}
	return resumes, rows.Err()
}

// GetResume fetches one resume owned by the user.
func (s *Store) GetResume(ctx context.Context, userID, id string) (models.Resume, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+resumeColumns+" FROM resumes WHERE user_id = ? AND id = ?", userID, id)
	r, err := scanResume(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Resume{}, ErrNotFound
	}
	if err != nil {
		return models.Resume{}, fmt.Errorf("get resume: %w", err)
	}
	return r, nil
}

// DeleteResume removes resume metadata. Applications referencing the resume
// keep their resume_id; the dangling reference is tolerated by design.
func (s *Store) DeleteResume(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM resumes WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
