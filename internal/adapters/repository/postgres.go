package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/ratings/internal/domain/model"
	"github.com/okian/ratings/pkg/metrics"
)

//go:embed schema.sql
var schema embed.FS

const accountColumns = `username, elo_overall, elo_seasonal,
	glicko_rating, glicko_rd, glicko_vol,
	glicko_season_rating, glicko_season_rd, glicko_season_vol,
	glicko_history, last_completed_game, games`

// PGStore is a Store backed by PostgreSQL.
type PGStore struct{ *pgxpool.Pool }

var _ Store = (*PGStore)(nil)

// OpenPG connects to dsn and verifies the connection.
func OpenPG(ctx context.Context, dsn string) (*PGStore, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PGStore{p}, nil
}

// Migrate creates the tables if they do not exist.
func (db *PGStore) Migrate(ctx context.Context) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

func (db *PGStore) Close() error {
	db.Pool.Close()
	return nil
}

// LockAccounts takes a session advisory lock per username on a dedicated
// connection, so rating the same accounts is serialized across every process
// sharing the database. Keys are locked in ascending order. The returned func
// releases them.
func (db *PGStore) LockAccounts(ctx context.Context, usernames []string) (func(), error) {
	keys := make([]int64, 0, len(usernames))
	for _, u := range usernames {
		keys = append(keys, advisoryKey(u))
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)

	conn, err := db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock connection: %w", err)
	}
	release := func() {
		_, _ = conn.Exec(context.Background(), "SELECT pg_advisory_unlock_all()")
		conn.Release()
	}
	for _, k := range keys {
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", k); err != nil {
			release()
			return nil, fmt.Errorf("advisory lock %d: %w", k, err)
		}
	}
	return release, nil
}

func advisoryKey(username string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(username))
	return int64(h.Sum64()) //nolint:gosec // wrap-around is fine for a lock key
}

func scanAccount(row pgx.Row) (model.Account, error) {
	var (
		a    model.Account
		last *time.Time
	)
	err := row.Scan(&a.Username, &a.EloOverall, &a.EloSeasonal,
		&a.GlickoOverall.Rating, &a.GlickoOverall.Deviation, &a.GlickoOverall.Volatility,
		&a.GlickoSeasonal.Rating, &a.GlickoSeasonal.Deviation, &a.GlickoSeasonal.Volatility,
		&a.GlickoRatingHistory, &last, &a.Games)
	if last != nil {
		a.LastCompletedGame = *last
	}
	return a, err
}

func (db *PGStore) Accounts(ctx context.Context, usernames []string) ([]model.Account, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(msSince(start)) }()

	for _, n := range usernames {
		if n == "" {
			return nil, ErrEmptyUsername
		}
	}
	rows, err := db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = ANY($1)`, usernames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	found := make(map[string]model.Account, len(usernames))
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		found[a.Username] = a
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]model.Account, 0, len(usernames))
	for _, n := range usernames {
		a, ok := found[n]
		if !ok {
			a = model.Account{Username: n}
		}
		out = append(out, a)
	}
	return out, nil
}

func (db *PGStore) Account(ctx context.Context, username string) (model.Account, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(msSince(start)) }()

	a, err := scanAccount(db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Account{}, ErrNotFound
	}
	return a, err
}

func (db *PGStore) SaveAccounts(ctx context.Context, accounts []model.Account) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(msSince(start)) }()

	batch := &pgx.Batch{}
	for _, a := range accounts {
		if a.Username == "" {
			return ErrEmptyUsername
		}
		var last *time.Time
		if !a.LastCompletedGame.IsZero() {
			last = &a.LastCompletedGame
		}
		history := a.GlickoRatingHistory
		if history == nil {
			history = []float64{}
		}
		batch.Queue(`
			INSERT INTO accounts (`+accountColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			ON CONFLICT (username) DO UPDATE
			   SET elo_overall = EXCLUDED.elo_overall,
			       elo_seasonal = EXCLUDED.elo_seasonal,
			       glicko_rating = EXCLUDED.glicko_rating,
			       glicko_rd = EXCLUDED.glicko_rd,
			       glicko_vol = EXCLUDED.glicko_vol,
			       glicko_season_rating = EXCLUDED.glicko_season_rating,
			       glicko_season_rd = EXCLUDED.glicko_season_rd,
			       glicko_season_vol = EXCLUDED.glicko_season_vol,
			       glicko_history = EXCLUDED.glicko_history,
			       last_completed_game = EXCLUDED.last_completed_game,
			       games = EXCLUDED.games,
			       updated_at = now()
		`, a.Username, a.EloOverall, a.EloSeasonal,
			a.GlickoOverall.Rating, a.GlickoOverall.Deviation, a.GlickoOverall.Volatility,
			a.GlickoSeasonal.Rating, a.GlickoSeasonal.Deviation, a.GlickoSeasonal.Volatility,
			history, last, a.Games)
	}
	return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (db *PGStore) SaveResult(ctx context.Context, r model.Result) error {
	if r.MatchID == "" {
		return ErrEmptyMatchID
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = db.Exec(ctx, `
		INSERT INTO match_results (match_id, rated_at, rainbow, payload)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (match_id) DO NOTHING
	`, r.MatchID, r.RatedAt, r.Rainbow, payload)
	return err
}

func (db *PGStore) Result(ctx context.Context, matchID string) (model.Result, error) {
	var payload []byte
	err := db.QueryRow(ctx, `SELECT payload FROM match_results WHERE match_id = $1`, matchID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Result{}, ErrNotFound
	}
	if err != nil {
		return model.Result{}, err
	}
	var r model.Result
	if err := json.Unmarshal(payload, &r); err != nil {
		return model.Result{}, fmt.Errorf("decode result: %w", err)
	}
	return r, nil
}

func (db *PGStore) Count(ctx context.Context) int {
	var n int
	if err := db.QueryRow(ctx, `SELECT count(*) FROM accounts`).Scan(&n); err != nil {
		metrics.RecordErrorByComponent("repository", "count")
		return 0
	}
	return n
}
