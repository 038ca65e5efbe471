package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/ratings/internal/domain/model"
)

// AccountDependencies defines the interface for account lookups.
type AccountDependencies interface {
	Account(ctx context.Context, username string) (model.Account, error)
}

// AccountHandler handles account requests.
type AccountHandler struct {
	deps AccountDependencies
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(deps AccountDependencies) *AccountHandler {
	return &AccountHandler{deps: deps}
}

// HandleGetAccount handles GET /accounts/{username}.
func (h *AccountHandler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if username == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	a, err := h.deps.Account(r.Context(), username)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
