package gcal

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"

	"github.com/rdvline/booking-server/pkg/logging"
)

// OAuthHandler serves the Google consent flow: /oauth/start redirects to the
// provider, /oauth/callback exchanges the code and persists the token.
type OAuthHandler struct {
	oauth  *oauth2.Config
	store  *TokenStore
	logger *logging.Logger

	mu     sync.Mutex
	states map[string]time.Time // state -> expiry, CSRF protection
}

// NewOAuthHandler creates the OAuth HTTP handler.
func NewOAuthHandler(oauthCfg *oauth2.Config, store *TokenStore, logger *logging.Logger) *OAuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &OAuthHandler{
		oauth:  oauthCfg,
		store:  store,
		logger: logger,
		states: make(map[string]time.Time),
	}
}

// Routes returns a chi router with the OAuth routes.
func (h *OAuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/start", h.HandleStart)
	r.Get("/callback", h.HandleCallback)
	return r
}

// HandleStart redirects to the Google consent screen.
// GET /oauth/start
func (h *OAuthHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		h.logger.Error("failed to generate state", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"ok":    false,
			"error": "internal_error",
		})
		return
	}
	state := hex.EncodeToString(stateBytes)

	h.mu.Lock()
	h.states[state] = time.Now().Add(10 * time.Minute)
	h.cleanExpiredStatesLocked()
	h.mu.Unlock()

	// prompt=consent forces Google to return a refresh token even when the
	// user already granted access once.
	authURL := h.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)

	h.logger.Info("initiating google oauth")
	http.Redirect(w, r, authURL, http.StatusFound)
}

// HandleCallback exchanges the authorization code and persists the token.
// GET /oauth/callback?code=...&state=...
func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	errorParam := r.URL.Query().Get("error")

	if errorParam != "" {
		h.logger.Error("google oauth error", "error", errorParam)
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"ok":    false,
			"error": errorParam,
		})
		return
	}

	if code == "" || state == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"ok":    false,
			"error": "missing_code_or_state",
		})
		return
	}

	h.mu.Lock()
	expiry, ok := h.states[state]
	delete(h.states, state)
	h.mu.Unlock()
	if !ok || time.Now().After(expiry) {
		h.logger.Error("oauth state invalid or expired")
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"ok":    false,
			"error": "invalid_state",
		})
		return
	}

	tok, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("token exchange failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"ok":    false,
			"error": "token_exchange_failed",
		})
		return
	}

	if err := h.store.Save(h.oauth, tok); err != nil {
		h.logger.Error("save credentials failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"ok":    false,
			"error": "token_persist_failed",
		})
		return
	}

	h.logger.Info("google oauth completed, token persisted")
	h.writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "Google Calendar connecté. Vous pouvez fermer cette fenêtre.",
	})
}

func (h *OAuthHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// cleanExpiredStatesLocked removes expired state entries. Caller holds mu.
func (h *OAuthHandler) cleanExpiredStatesLocked() {
	now := time.Now()
	for state, expiry := range h.states {
		if now.After(expiry) {
			delete(h.states, state)
		}
	}
}
