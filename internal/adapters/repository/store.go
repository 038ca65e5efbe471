// Package repository persists accounts and match results.
package repository

import (
	"context"

	"github.com/okian/ratings/internal/domain/model"
)

// Store provides read/write access to rating state.
type Store interface {
	// Accounts returns one account per username in input order. Unknown
	// usernames yield a fresh unrated account which is not persisted until saved.
	Accounts(ctx context.Context, usernames []string) ([]model.Account, error)
	// Account returns a stored account or ErrNotFound.
	Account(ctx context.Context, username string) (model.Account, error)
	// SaveAccounts upserts accounts.
	SaveAccounts(ctx context.Context, accounts []model.Account) error
	// SaveResult stores the result of a rated match.
	SaveResult(ctx context.Context, r model.Result) error
	// Result returns a stored match result or ErrNotFound.
	Result(ctx context.Context, matchID string) (model.Result, error)
	// Count returns the number of stored accounts.
	Count(ctx context.Context) int
	Close() error
}
