package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rmoran/apptrack/internal/models"
)

// Sentinel errors surfaced by the store. Callers translate them into their
// own error taxonomy with errors.Is.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const applicationColumns = "id, user_id, company, position, applied_at, status, resume_id, notes, source, email_id, confidence"

func scanApplication(row interface{ Scan(...any) error }) (models.Application, error) {
	var a models.Application
	var appliedAt int64
	var status string
	var source string
	err := row.Scan(&a.ID, &a.UserID, &a.Company, &a.Position, &appliedAt, &status, &a.ResumeID, &a.Notes, &source, &a.EmailID, &a.Confidence)
	if err != nil {
		return models.Application{}, err
	}
	a.AppliedAt = time.Unix(appliedAt, 0).UTC()
	a.Status = models.NormalizeStatus(status)
	a.Source = models.Source(source)
	return a, nil
}

// ListApplications returns all applications for the user, oldest first.
func (s *Store) ListApplications(ctx context.Context, userID string) ([]models.Application, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+applicationColumns+" FROM applications WHERE user_id = ? ORDER BY created_at, id", userID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	apps := make([]models.Application, 0, 16)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// GetApplication fetches a single application owned by the user.
func (s *Store) GetApplication(ctx context.Context, userID, id string) (models.Application, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+applicationColumns+" FROM applications WHERE user_id = ? AND id = ?", userID, id)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Application{}, ErrNotFound
	}
	if err != nil {
		return models.Application{}, fmt.Errorf("get application: %w", err)
	}
	return a, nil
}

// InsertApplication persists a new application. The caller assigns the id.
// A gmail record whose (user, email_id) origin key already exists fails with
// ErrDuplicate; the unique index is the last line of defense behind the
// reconciler's own de-duplication.
func (s *Store) InsertApplication(ctx context.Context, a models.Application) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO applications (`+applicationColumns+`, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Company, a.Position, a.AppliedAt.Unix(), string(a.Status),
		a.ResumeID, a.Notes, string(a.Source), a.EmailID, a.Confidence, now, now)
	if isUniqueViolation(err) {
		return fmt.Errorf("insert application: %w", ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// InsertApplications persists a batch in a single transaction. Either every
// record lands or none do, so a failed sync import never leaves a partial
// merge behind.
func (s *Store) InsertApplications(ctx context.Context, apps []models.Application) error {
	if len(apps) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert batch: %w", err)
	}
	now := time.Now().Unix()
	for _, a := range apps {
		_, err := tx.ExecContext(ctx, `
INSERT INTO applications (`+applicationColumns+`, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.UserID, a.Company, a.Position, a.AppliedAt.Unix(), string(a.Status),
			a.ResumeID, a.Notes, string(a.Source), a.EmailID, a.Confidence, now, now)
		if err != nil {
			_ = tx.Rollback()
			if isUniqueViolation(err) {
				return fmt.Errorf("insert batch: %w", ErrDuplicate)
			}
			return fmt.Errorf("insert batch: %w", err)
		}
	}
	return tx.Commit()
}

// UpdateApplication replaces the mutable fields of an existing application.
// Identity fields (id, user_id) are never changed.
func (s *Store) UpdateApplication(ctx context.Context, a models.Application) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE applications
SET company = ?, position = ?, applied_at = ?, status = ?, resume_id = ?, notes = ?, updated_at = ?
WHERE user_id = ? AND id = ?`,
		a.Company, a.Position, a.AppliedAt.Unix(), string(a.Status), a.ResumeID, a.Notes,
		time.Now().Unix(), a.UserID, a.ID)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteApplication removes a single application owned by the user.
func (s *Store) DeleteApplication(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM applications WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllApplications removes every application for the user and returns
// how many rows went away.
func (s *Store) DeleteAllApplications(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM applications WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("clear applications: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
