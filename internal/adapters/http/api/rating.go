package api

import (
	"net/http"

	"github.com/samber/lo"

	"github.com/okian/ratings/internal/domain/elo"
	"github.com/okian/ratings/internal/domain/glicko"
)

// RatingDependencies defines the synchronous rating operations.
type RatingDependencies interface {
	CreateRating(opts ...glicko.RatingOption) (glicko.Rating, error)
	RateTeams(teams []glicko.Team, mode string) ([]glicko.Rating, error)
	RateOneVsOne(a, b glicko.Rating, drawn bool) (glicko.Rating, glicko.Rating, error)
	RateElo(m elo.Match) (map[string]elo.Change, error)
}

// RatingHandler exposes the engines without touching stored accounts.
type RatingHandler struct {
	deps RatingDependencies
}

// NewRatingHandler creates a new rating handler.
func NewRatingHandler(deps RatingDependencies) *RatingHandler {
	return &RatingHandler{deps: deps}
}

// ratingInput accepts partial ratings; omitted fields take the engine defaults.
type ratingInput struct {
	Rating     *float64 `json:"rating"`
	Deviation  *float64 `json:"deviation"`
	Volatility *float64 `json:"volatility"`
}

func (h *RatingHandler) toRating(in ratingInput) (glicko.Rating, error) {
	var opts []glicko.RatingOption
	if in.Rating != nil {
		opts = append(opts, glicko.WithRating(*in.Rating))
	}
	if in.Deviation != nil {
		opts = append(opts, glicko.WithDeviation(*in.Deviation))
	}
	if in.Volatility != nil {
		opts = append(opts, glicko.WithVolatility(*in.Volatility))
	}
	return h.deps.CreateRating(opts...)
}

type rateTeamsRequest struct {
	Teams [][]ratingInput `json:"teams"`
	Mode  string          `json:"mode"`
}

type rateTeamsResponse struct {
	Ratings []glicko.Rating `json:"ratings"`
}

// HandleRateTeams handles POST /glicko/rate.
func (h *RatingHandler) HandleRateTeams(w http.ResponseWriter, r *http.Request) {
	const op = "api.glicko_rate"
	var req rateTeamsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	teams := make([]glicko.Team, 0, len(req.Teams))
	for _, members := range req.Teams {
		team := make(glicko.Team, 0, len(members))
		for _, m := range members {
			rt, err := h.toRating(m)
			if err != nil {
				h.fail(w, op, err)
				return
			}
			team = append(team, rt)
		}
		teams = append(teams, team)
	}
	out, err := h.deps.RateTeams(teams, req.Mode)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rateTeamsResponse{Ratings: out})
}

type rateOneVsOneRequest struct {
	Winner ratingInput `json:"winner"`
	Loser  ratingInput `json:"loser"`
	Drawn  bool        `json:"drawn"`
}

type rateOneVsOneResponse struct {
	Winner glicko.Rating `json:"winner"`
	Loser  glicko.Rating `json:"loser"`
}

// HandleRateOneVsOne handles POST /glicko/rate1v1.
func (h *RatingHandler) HandleRateOneVsOne(w http.ResponseWriter, r *http.Request) {
	const op = "api.glicko_rate1v1"
	var req rateOneVsOneRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	a, err := h.toRating(req.Winner)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	b, err := h.toRating(req.Loser)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	wr, lr, err := h.deps.RateOneVsOne(a, b, req.Drawn)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rateOneVsOneResponse{Winner: wr, Loser: lr})
}

type rateEloRequest struct {
	Winners    []elo.Account `json:"winners"`
	Losers     []elo.Account `json:"losers"`
	TableSize  int           `json:"table_size"`
	FactionWin bool          `json:"faction_win"`
	Rainbow    bool          `json:"rainbow"`
}

// HandleRateElo handles POST /elo/rate. A zero table size means winners plus losers.
func (h *RatingHandler) HandleRateElo(w http.ResponseWriter, r *http.Request) {
	const op = "api.elo_rate"
	var req rateEloRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	size := lo.Ternary(req.TableSize > 0, req.TableSize, len(req.Winners)+len(req.Losers))
	changes, err := h.deps.RateElo(elo.Match{
		Winners:    req.Winners,
		Losers:     req.Losers,
		TableSize:  size,
		FactionWin: req.FactionWin,
		Rainbow:    req.Rainbow,
	})
	if err != nil {
		h.fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, changes)
}

func (h *RatingHandler) fail(w http.ResponseWriter, op string, err error) {
	if isInputError(err) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err)
}
