package services

import (
	"github.com/rmoran/apptrack/internal/models"
)

// Reconciler merges mailbox-derived candidate records into an existing
// collection without duplicating previously imported ones. Emails are
// immutable historical artifacts: once a message has produced a tracked
// application, re-scanning must be idempotent. That is why the
// de-duplication key is the stable originating email id, never a fuzzy
// match on company/position/date.
type Reconciler struct {
	// UserID stamps the owning user onto accepted candidates.
	UserID string
	// NewID assigns record identity to accepted candidates.
	NewID func() string
}

// ReconcileResult is the outcome of one merge.
type ReconcileResult struct {
	// Merged is existing ++ accepted: existing records in their original
	// order and untouched, accepted candidates appended in received order.
	Merged []models.Application
	// Accepted holds just the newly accepted records.
	Accepted []models.Application
	// NewlyAdded = len(Accepted). Duplicates are skipped silently; they are
	// an expected outcome, not a fault.
	NewlyAdded int
}

// Reconcile merges candidates into existing. A candidate whose email id is
// already represented by an existing gmail record is discarded without
// modifying that record, even if its fields differ. Accepted candidates get
// fresh identity, the owning user id and a classifier-normalized status.
// Neither input slice is mutated.
func (r Reconciler) Reconcile(existing, candidates []models.Application) ReconcileResult {
	known := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		if a.FromGmail() && a.EmailID != "" {
			known[a.EmailID] = struct{}{}
		}
	}

	accepted := make([]models.Application, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := known[c.EmailID]; dup {
			continue
		}
		c.ID = r.NewID()
		c.UserID = r.UserID
		c.Source = models.SourceGmail
		c.Status = models.NormalizeStatus(string(c.Status))
		accepted = append(accepted, c)
		// a batch can carry the same email twice; only the first wins
		known[c.EmailID] = struct{}{}
	}

	merged := make([]models.Application, 0, len(existing)+len(accepted))
	merged = append(merged, existing...)
	merged = append(merged, accepted...)

	return ReconcileResult{
		Merged:     merged,
		Accepted:   accepted,
		NewlyAdded: len(accepted),
	}
}
