// Package watchlist implements the user-scoped movie watchlist: CRUD over
// watchlist entries with ownership enforced on every mutation.
package watchlist

import (
	"context"
)

// Service defines the watchlist operations exposed to handlers.
type Service interface {
	GetWatchlist(ctx context.Context, userID int64) ([]Entry, error)
	AddEntry(ctx context.Context, userID int64, req CreateEntryRequest) (*Entry, error)
	UpdateEntry(ctx context.Context, entryID, userID int64, patch UpdateEntryRequest) (*Entry, error)
	RemoveEntry(ctx context.Context, entryID, userID int64) error
}

type service struct {
	repo *Repository
}

// NewService creates the watchlist service backed by the given repository.
func NewService(repo *Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetWatchlist(ctx context.Context, userID int64) ([]Entry, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) AddEntry(ctx context.Context, userID int64, req CreateEntryRequest) (*Entry, error) {
	return s.repo.Create(ctx, userID, req)
}

func (s *service) UpdateEntry(ctx context.Context, entryID, userID int64, patch UpdateEntryRequest) (*Entry, error) {
	return s.repo.Update(ctx, entryID, userID, patch)
}

func (s *service) RemoveEntry(ctx context.Context, entryID, userID int64) error {
	return s.repo.Delete(ctx, entryID, userID)
}
