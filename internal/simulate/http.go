package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/okian/ratings/pkg/logger"
)

type outcome int

const (
	accepted outcome = iota
	duplicate
	failed
)

// client wraps http.Client with JSON helpers.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(cfg *Config) *client {
	return &client{http: &http.Client{Timeout: cfg.Timeout}, baseURL: cfg.BaseURL}
}

func (c *client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request body: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if out != nil && resp.StatusCode < http.StatusMultipleChoices {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
		return resp.StatusCode, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (c *client) submit(ctx context.Context, m Match) outcome {
	var ack AckResponse
	status, err := c.do(ctx, http.MethodPost, "/matches", m, &ack)
	switch {
	case err != nil:
		return failed
	case status == http.StatusAccepted:
		return accepted
	case status == http.StatusOK && ack.Duplicate:
		return duplicate
	default:
		return failed
	}
}

func (c *client) account(ctx context.Context, username string) (Account, error) {
	var a Account
	status, err := c.do(ctx, http.MethodGet, "/accounts/"+url.PathEscape(username), nil, &a)
	if err != nil {
		return Account{}, err
	}
	if status != http.StatusOK {
		return Account{}, fmt.Errorf("account %s: status %d", username, status)
	}
	return a, nil
}

func (c *client) stats(ctx context.Context) (serviceStats, error) {
	var s serviceStats
	status, err := c.do(ctx, http.MethodGet, "/stats", nil, &s)
	if err != nil {
		return serviceStats{}, err
	}
	if status != http.StatusOK {
		return serviceStats{}, fmt.Errorf("stats: status %d", status)
	}
	return s, nil
}

// submitMatches posts every match with at most cfg.Workers in flight and
// returns the matches the service accepted.
func submitMatches(ctx context.Context, cfg *Config, c *client, matches []Match, stats *Stats) ([]Match, error) {
	log := logger.Named("simulate")
	log.Info(ctx, "submitting matches", logger.Int("matches", len(matches)), logger.Int("workers", cfg.Workers))

	var (
		submitted, dup, fail atomic.Int64
		mu                   sync.Mutex
		acceptedMatches      = make([]Match, 0, len(matches))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, m := range matches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			submitted.Add(1)
			switch c.submit(gctx, m) {
			case accepted:
				mu.Lock()
				acceptedMatches = append(acceptedMatches, m)
				mu.Unlock()
			case duplicate:
				dup.Add(1)
			case failed:
				fail.Add(1)
				if cfg.Verbose {
					log.Warn(gctx, "match submission failed", logger.String("match_id", m.MatchID))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.MatchesSubmitted = int(submitted.Load())
	stats.MatchesAccepted = len(acceptedMatches)
	stats.MatchesDuplicate = int(dup.Load())
	stats.MatchesFailed = int(fail.Load())
	log.Info(ctx, "match submission completed",
		logger.Int("accepted", stats.MatchesAccepted),
		logger.Int("duplicate", stats.MatchesDuplicate),
		logger.Int("failed", stats.MatchesFailed))
	return acceptedMatches, nil
}

// fetchAccounts loads the accounts of every player concurrently.
func fetchAccounts(ctx context.Context, cfg *Config, c *client, usernames []string) ([]Account, error) {
	out := make([]Account, len(usernames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, u := range usernames {
		g.Go(func() error {
			a, err := c.account(gctx, u)
			if err != nil {
				return err
			}
			out[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
