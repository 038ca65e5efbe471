package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/ratings/internal/domain/model"
)

// MatchDependencies defines what the match handlers need.
type MatchDependencies interface {
	SubmitMatch(ctx context.Context, m model.Match) (id string, duplicate bool, err error)
	Result(ctx context.Context, matchID string) (model.Result, error)
}

// MatchesHandler handles match submission and lookup.
type MatchesHandler struct {
	deps MatchDependencies
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps MatchDependencies) *MatchesHandler {
	return &MatchesHandler{deps: deps}
}

type matchRequest struct {
	MatchID     string     `json:"match_id"`
	Winners     []string   `json:"winners"`
	Losers      []string   `json:"losers"`
	LiberalWin  bool       `json:"liberal_win"`
	Rainbow     bool       `json:"rainbow"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type ackResponse struct {
	Status    string `json:"status"`
	MatchID   string `json:"match_id"`
	Duplicate bool   `json:"duplicate"`
}

// HandlePostMatch handles POST /matches.
func (h *MatchesHandler) HandlePostMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_match"
	var req matchRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	m := model.Match{
		MatchID:    req.MatchID,
		Winners:    req.Winners,
		Losers:     req.Losers,
		LiberalWin: req.LiberalWin,
		Rainbow:    req.Rainbow,
	}
	if req.CompletedAt != nil {
		m.CompletedAt = *req.CompletedAt
	}

	id, dup, err := h.deps.SubmitMatch(r.Context(), m)
	switch {
	case err == nil && dup:
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", MatchID: id, Duplicate: true})
	case err == nil:
		writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", MatchID: id})
	case errors.Is(err, model.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, model.ErrInvalidMatch):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// HandleGetMatch handles GET /matches/{id}.
func (h *MatchesHandler) HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := h.deps.Result(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
