package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namelens/expirywatch/internal/core"
)

type fakeSource struct {
	snapshot *core.Snapshot
	forced   []bool
}

func (f *fakeSource) Snapshot(_ context.Context, force bool) *core.Snapshot {
	f.forced = append(f.forced, force)
	return f.snapshot
}

func testSnapshot() *core.Snapshot {
	now := time.Date(2029, 12, 1, 0, 0, 0, 0, time.UTC)
	expiring := core.NewRecord("soon.example", core.Success(core.TierLegacy, now.AddDate(0, 0, 3)), now, 14)
	resolved := core.NewRecord("example.com", core.Success(core.TierRegistry, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)), now, 14)
	missing := core.NewRecord("missing.example", core.NoExpiration(core.TierRegistry), now, 14)

	return &core.Snapshot{
		Records:     []core.Record{expiring, resolved, missing},
		GeneratedAt: now,
		Settings: core.Settings{
			AlertDays:      14,
			RefreshMinutes: 360,
			RegistryBase:   "https://rdap.example/domain",
			LegacyEnabled:  true,
		},
	}
}

func TestStatusRendersSnapshot(t *testing.T) {
	source := &fakeSource{snapshot: testSnapshot()}
	handler := NewExpiryHandler(source, "!")

	rec := httptest.NewRecorder()
	handler.Status(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, []bool{false}, source.forced)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2029-12-01T00:00:00Z", body["updated"])
	assert.EqualValues(t, 360, body["refresh_minutes"])
	assert.EqualValues(t, 14, body["alert_days"])
	assert.Equal(t, "https://rdap.example/domain", body["rdap_base"])
	assert.Equal(t, map[string]any{"whois": true, "aggregator": false}, body["fallbacks"])

	domains := body["domains"].([]any)
	require.Len(t, domains, 3)

	first := domains[0].(map[string]any)
	assert.Equal(t, "soon.example", first["domain"])
	assert.Equal(t, "! 12/04/2029 (3d)", first["label"])
	assert.Equal(t, true, first["alert"])
	assert.Equal(t, "legacy-text-protocol", first["source"])

	second := domains[1].(map[string]any)
	assert.Equal(t, "2030-01-01T00:00:00Z", second["expires"])
	assert.Equal(t, "01/01/2030", second["expires_us"])
	assert.EqualValues(t, 31, second["days_left"])
	assert.NotContains(t, second, "error")

	third := domains[2].(map[string]any)
	assert.Nil(t, third["expires"])
	assert.Nil(t, third["days_left"])
	assert.Nil(t, third["source"])
	assert.Equal(t, "n/a", third["label"])
	assert.Equal(t, "no-expiration-in-source", third["error"])
}

func TestStatusForceFlag(t *testing.T) {
	tests := []struct {
		query string
		force bool
	}{
		{query: "?force=true", force: true},
		{query: "?force=1", force: true},
		{query: "?force=false", force: false},
		{query: "?force=", force: false},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			source := &fakeSource{snapshot: testSnapshot()}
			rec := httptest.NewRecorder()
			NewExpiryHandler(source, "").Status(rec, httptest.NewRequest(http.MethodGet, "/status"+tc.query, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, []bool{tc.force}, source.forced)
		})
	}
}

func TestStatusRejectsInvalidForce(t *testing.T) {
	source := &fakeSource{snapshot: testSnapshot()}
	rec := httptest.NewRecorder()
	NewExpiryHandler(source, "").Status(rec, httptest.NewRequest(http.MethodGet, "/status?force=maybe", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, source.forced)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_INPUT", body.Error.Code)
}

func TestFlatRendersOrderedLines(t *testing.T) {
	source := &fakeSource{snapshot: testSnapshot()}
	rec := httptest.NewRecorder()
	NewExpiryHandler(source, "!").Flat(rec, httptest.NewRequest(http.MethodGet, "/flat?force=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []bool{false}, source.forced)
	assert.JSONEq(t, `{
		"line1": "soon.example — Exp: ! 12/04/2029 (3d)",
		"line2": "example.com — Exp: 01/01/2030 (31d)",
		"line3": "missing.example — Exp: n/a [no-expiration-in-source]",
		"updated": "2029-12-01T00:00:00Z"
	}`, rec.Body.String())
	assert.Regexp(t, `^\{"line1":.*,"line2":.*,"line3":.*,"updated":.*\}$`, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}
