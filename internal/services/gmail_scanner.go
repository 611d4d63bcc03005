package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/rmoran/apptrack/internal/db"
	"github.com/rmoran/apptrack/internal/gmail"
	"github.com/rmoran/apptrack/internal/models"
	"github.com/rmoran/apptrack/pkg/auth"
)

// GmailScannerImpl implements MailboxScanner and GmailTokenStore. It keeps
// one OAuth token per user in the database and builds a short-lived Gmail
// client around it for each scan.
type GmailScannerImpl struct {
	store      *db.Store
	flow       *auth.Flow
	query      string
	maxResults int64
	patterns   *gmail.Patterns
}

// NewGmailScanner creates a new mailbox scanner. An empty query falls back
// to the importer's default search.
func NewGmailScanner(store *db.Store, flow *auth.Flow, query string, maxResults int64, patterns *gmail.Patterns) *GmailScannerImpl {
	if patterns == nil {
		patterns = gmail.DefaultPatterns()
	}
	return &GmailScannerImpl{
		store:      store,
		flow:       flow,
		query:      query,
		maxResults: maxResults,
		patterns:   patterns,
	}
}

// FetchCandidates scans the user's mailbox. A user without a linked Gmail
// account fails with ErrGmailNotLinked; transport and API failures surface
// as ErrRemoteUnavailable. No partial results are ever returned.
func (g *GmailScannerImpl) FetchCandidates(ctx context.Context, userID string) ([]models.Application, error) {
	if g.flow == nil {
		return nil, ErrGmailNotLinked
	}
	tokenJSON, err := g.store.LoadGmailToken(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrGmailNotLinked
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	token, err := auth.UnmarshalToken(tokenJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	service, err := g.flow.ServiceFromToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	client := gmail.NewClientWithPatterns(service, g.patterns)
	candidates, err := client.FetchCandidates(ctx, g.query, g.maxResults)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return candidates, nil
}

// SaveToken stores the OAuth token granted in the callback.
func (g *GmailScannerImpl) SaveToken(ctx context.Context, userID string, token *oauth2.Token) error {
	tokenJSON, err := auth.MarshalToken(token)
	if err != nil {
		return err
	}
	if err := g.store.SaveGmailToken(ctx, userID, tokenJSON); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return nil
}

// HasToken reports whether the user has a linked Gmail account.
func (g *GmailScannerImpl) HasToken(ctx context.Context, userID string) bool {
	_, err := g.store.LoadGmailToken(ctx, userID)
	return err == nil
}

// RevokeToken forgets the user's stored token.
func (g *GmailScannerImpl) RevokeToken(ctx context.Context, userID string) error {
	if err := g.store.DeleteGmailToken(ctx, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return nil
}
