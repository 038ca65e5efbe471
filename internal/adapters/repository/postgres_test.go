package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/ratings/internal/domain/model"
)

// RATINGS_TEST_DATABASE_URL points at a disposable database.
func openTestPG(t *testing.T) *PGStore {
	t.Helper()
	dsn := os.Getenv("RATINGS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("RATINGS_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := OpenPG(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPGStore_RoundTrip(t *testing.T) {
	db := openTestPG(t)
	ctx := context.Background()
	name := "pg-" + uuid.NewString()

	fresh, err := db.Accounts(ctx, []string{name})
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, name, fresh[0].Username)

	_, err = db.Account(ctx, name)
	assert.True(t, errors.Is(err, ErrNotFound))

	a := fresh[0]
	a.EloOverall = 1612.5
	a.GlickoOverall = model.GlickoState{Rating: 1700, Deviation: 120, Volatility: 0.059}
	a.GlickoRatingHistory = []float64{1600, 1650}
	a.LastCompletedGame = time.Now().UTC().Truncate(time.Microsecond)
	a.Games = 2
	require.NoError(t, db.SaveAccounts(ctx, []model.Account{a}))

	got, err := db.Account(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, a.EloOverall, got.EloOverall)
	assert.Equal(t, a.GlickoOverall, got.GlickoOverall)
	assert.Equal(t, a.GlickoRatingHistory, got.GlickoRatingHistory)
	assert.True(t, a.LastCompletedGame.Equal(got.LastCompletedGame))

	id := uuid.NewString()
	res := model.Result{MatchID: id, RatedAt: time.Now().UTC(), Elo: map[string]model.EloChange{name: {Change: 3}}}
	require.NoError(t, db.SaveResult(ctx, res))
	stored, err := db.Result(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3.0, stored.Elo[name].Change)
	assert.GreaterOrEqual(t, db.Count(ctx), 1)
}

func TestPGStore_LockAccounts(t *testing.T) {
	db := openTestPG(t)
	ctx := context.Background()
	name := "lock-" + uuid.NewString()

	release, err := db.LockAccounts(ctx, []string{name, "other-" + name, name})
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_, err = db.LockAccounts(waitCtx, []string{name})
	assert.Error(t, err, "a held account lock must block a second holder")

	release()
	again, err := db.LockAccounts(ctx, []string{name})
	require.NoError(t, err)
	again()
}
