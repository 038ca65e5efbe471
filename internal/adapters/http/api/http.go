// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/ratings/internal/adapters/repository"
	"github.com/okian/ratings/internal/domain/elo"
	"github.com/okian/ratings/internal/domain/glicko"
	"github.com/okian/ratings/internal/domain/model"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	SubmitMatch(ctx context.Context, m model.Match) (id string, duplicate bool, err error)
	Result(ctx context.Context, matchID string) (model.Result, error)
	Account(ctx context.Context, username string) (model.Account, error)

	CreateRating(opts ...glicko.RatingOption) (glicko.Rating, error)
	RateTeams(teams []glicko.Team, mode string) ([]glicko.Rating, error)
	RateOneVsOne(a, b glicko.Rating, drawn bool) (glicko.Rating, glicko.Rating, error)
	RateElo(m elo.Match) (map[string]elo.Change, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	matchesHandler *MatchesHandler
	accountHandler *AccountHandler
	ratingHandler  *RatingHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		matchesHandler: NewMatchesHandler(deps),
		accountHandler: NewAccountHandler(deps),
		ratingHandler:  NewRatingHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Use(middleware.RequestID, middleware.Recoverer, MetricsMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)

	r.Post("/matches", s.matchesHandler.HandlePostMatch)
	r.Get("/matches/{id}", s.matchesHandler.HandleGetMatch)
	r.Get("/accounts/{username}", s.accountHandler.HandleGetAccount)

	r.Route("/glicko", func(r chi.Router) {
		r.Post("/rate", s.ratingHandler.HandleRateTeams)
		r.Post("/rate1v1", s.ratingHandler.HandleRateOneVsOne)
	})
	r.Post("/elo/rate", s.ratingHandler.HandleRateElo)
}

// Router returns a chi router with every route registered.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrNotFound)
}

// isInputError reports whether err stems from caller-supplied values.
func isInputError(err error) bool {
	for _, kind := range []error{
		glicko.ErrInvalidRating, glicko.ErrInvalidOutcome, glicko.ErrNotEnoughTeams,
		glicko.ErrEmptyTeam, glicko.ErrDegenerateMatch, glicko.ErrUnknownTeamMode,
		elo.ErrNoWinners, elo.ErrNoLosers, elo.ErrUnsupportedTableSize,
		elo.ErrDuplicateAccount, elo.ErrInvalidRating,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
