package gcal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestHandleStartRedirectsToConsent(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	h := NewOAuthHandler(testOAuthConfig(), store, nil)

	req := httptest.NewRequest(http.MethodGet, "/oauth/start", nil)
	w := httptest.NewRecorder()
	h.HandleStart(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)

	q := loc.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Contains(t, q.Get("scope"), "auth/calendar")
	assert.NotEmpty(t, q.Get("state"))
}

func TestHandleCallbackExchangesAndPersists(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "ya29.fresh",
			"refresh_token": "1//refresh",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	defer tokenSrv.Close()

	cfg := testOAuthConfig()
	cfg.Endpoint = oauth2.Endpoint{
		AuthURL:  cfg.Endpoint.AuthURL,
		TokenURL: tokenSrv.URL + "/token",
	}

	path := filepath.Join(t.TempDir(), "token.json")
	store := NewTokenStore(path)
	h := NewOAuthHandler(cfg, store, nil)

	// Run the start leg to obtain a valid state.
	startRec := httptest.NewRecorder()
	h.HandleStart(startRec, httptest.NewRequest(http.MethodGet, "/oauth/start", nil))
	loc, err := url.Parse(startRec.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	req := httptest.NewRequest(http.MethodGet, "/oauth/callback?code=authcode&state="+state, nil)
	w := httptest.NewRecorder()
	h.HandleCallback(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var payload map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&payload))
	assert.Equal(t, true, payload["ok"])
	assert.NotEmpty(t, payload["message"])

	tok, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "ya29.fresh", tok.AccessToken)
	assert.Equal(t, "1//refresh", tok.RefreshToken)
}

func TestHandleCallbackRejectsBadRequests(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	h := NewOAuthHandler(testOAuthConfig(), store, nil)

	tests := []struct {
		name      string
		target    string
		wantError string
	}{
		{"provider error", "/oauth/callback?error=access_denied", "access_denied"},
		{"missing code", "/oauth/callback?state=abc", "missing_code_or_state"},
		{"missing state", "/oauth/callback?code=abc", "missing_code_or_state"},
		{"unknown state", "/oauth/callback?code=abc&state=forged", "invalid_state"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HandleCallback(w, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var payload map[string]any
			require.NoError(t, json.NewDecoder(w.Body).Decode(&payload))
			assert.Equal(t, false, payload["ok"])
			assert.Equal(t, tt.wantError, payload["error"])
			assert.False(t, store.Connected())
		})
	}
}

func TestStateIsSingleUse(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusInternalServerError)
	}))
	defer tokenSrv.Close()

	cfg := testOAuthConfig()
	cfg.Endpoint = oauth2.Endpoint{AuthURL: cfg.Endpoint.AuthURL, TokenURL: tokenSrv.URL}

	store := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	h := NewOAuthHandler(cfg, store, nil)

	startRec := httptest.NewRecorder()
	h.HandleStart(startRec, httptest.NewRequest(http.MethodGet, "/oauth/start", nil))
	loc, err := url.Parse(startRec.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")

	// First use consumes the state even though the exchange fails.
	w := httptest.NewRecorder()
	h.HandleCallback(w, httptest.NewRequest(http.MethodGet, "/oauth/callback?code=abc&state="+state, nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	h.HandleCallback(w, httptest.NewRequest(http.MethodGet, "/oauth/callback?code=abc&state="+state, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
