package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/namelens/expirywatch/internal/core"
	apperrors "github.com/namelens/expirywatch/internal/errors"
	"github.com/namelens/expirywatch/internal/output"
)

// SnapshotSource serves snapshots, refreshing when stale or forced.
// *cache.RefreshCache satisfies it.
type SnapshotSource interface {
	Snapshot(ctx context.Context, force bool) *core.Snapshot
}

// ExpiryHandler renders the cached snapshot. It never reports per-domain
// failures as HTTP errors.
type ExpiryHandler struct {
	Source SnapshotSource
	Emoji  string
}

// NewExpiryHandler creates a handler reading through source.
func NewExpiryHandler(source SnapshotSource, emoji string) *ExpiryHandler {
	return &ExpiryHandler{Source: source, Emoji: emoji}
}

// Status handles GET /status[?force=bool].
func (h *ExpiryHandler) Status(w http.ResponseWriter, r *http.Request) {
	force, err := parseForce(r)
	if err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid force parameter"))
		return
	}

	view := output.NewStatusView(h.snapshot(r, force), h.Emoji)
	body, err := json.Marshal(view)
	if err != nil {
		respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "failed to render status"))
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// Flat handles GET /flat. It never forces a refresh.
func (h *ExpiryHandler) Flat(w http.ResponseWriter, r *http.Request) {
	lines := output.NewFlatLines(h.snapshot(r, false), h.Emoji)
	body, err := json.Marshal(lines)
	if err != nil {
		respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "failed to render lines"))
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// Healthz handles GET /healthz.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, []byte(`{"ok":true}`))
}

func (h *ExpiryHandler) snapshot(r *http.Request, force bool) *core.Snapshot {
	if h == nil || h.Source == nil {
		return nil
	}
	return h.Source.Snapshot(r.Context(), force)
}

func parseForce(r *http.Request) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("force"))
	if raw == "" {
		return false, nil
	}
	force, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("force must be a boolean, got %q", raw)
	}
	return force, nil
}
