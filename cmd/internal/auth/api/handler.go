package authapi

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"hub/cmd/internal/auth"
)

const defaultMaxBodyBytes = 1 << 20 // 1 MiB

// Config tunes the auth HTTP boundary.
type Config struct {
	// MaxBodyBytes caps JSON request bodies. Zero means the default.
	MaxBodyBytes int64

	// BootstrapSecret guards /auth/generate-key once at least one key
	// exists. Empty means generation stays locked after bootstrap.
	BootstrapSecret string
}

// Handler wires the HTTP auth endpoints to the auth services.
type Handler struct {
	log  *slog.Logger
	auth *auth.Service
	keys *auth.KeyService
	cfg  Config
	now  func() time.Time
}

// NewHandler constructs a Handler. now may be nil.
func NewHandler(log *slog.Logger, authSvc *auth.Service, keys *auth.KeyService, cfg Config, now func() time.Time) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Handler{log: log, auth: authSvc, keys: keys, cfg: cfg, now: now}
}

// Register mounts the auth routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", h.handleRegister)
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("POST /auth/refresh", h.handleRefresh)
	mux.HandleFunc("POST /auth/logout", h.handleLogout)
	mux.HandleFunc("POST /auth/logout-all", h.handleLogoutAll)
	mux.HandleFunc("POST /auth/generate-key", h.handleGenerateKey)
	mux.HandleFunc("GET /auth/keys", h.handleListKeys)
	mux.HandleFunc("GET /me", h.handleMe)
}

func toUserPayload(v auth.UserView) userPayload {
	return userPayload{
		ID:          v.ID,
		Email:       v.Email,
		DisplayName: v.DisplayName,
		AvatarURL:   v.AvatarURL,
		CreatedAt:   v.CreatedAt,
	}
}

func toTokenResponse(b auth.TokenBundle) tokenResponse {
	return tokenResponse{
		AccessToken:  b.AccessToken,
		RefreshToken: b.RefreshToken,
		ExpiresAt:    b.ExpiresAt,
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	user, tokens, err := h.auth.Register(r.Context(), h.now(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, credentialResponse{
		User:          toUserPayload(user),
		tokenResponse: toTokenResponse(tokens),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	user, tokens, err := h.auth.Login(r.Context(), h.now(), req.Email, req.Password, req.DeviceID)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, credentialResponse{
		User:          toUserPayload(user),
		tokenResponse: toTokenResponse(tokens),
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	tokens, err := h.auth.Refresh(r.Context(), h.now(), req.RefreshToken)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenResponse(tokens))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	if err := h.auth.LogoutByRefreshToken(r.Context(), h.now(), req.RefreshToken); err != nil {
		writeAuthError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok || id.UserID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	if err := h.auth.LogoutAll(r.Context(), id.UserID); err != nil {
		writeAuthError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGenerateKey is the bootstrap endpoint: open while zero keys exist,
// afterwards guarded by the configured bootstrap secret.
func (h *Handler) handleGenerateKey(w http.ResponseWriter, r *http.Request) {
	count, err := h.keys.Count(r.Context())
	if err != nil {
		writeAuthError(w, err)
		return
	}

	if count > 0 {
		if h.cfg.BootstrapSecret == "" {
			writeError(w, http.StatusForbidden, "forbidden", "key generation is locked")
			return
		}
		presented := r.Header.Get("X-Bootstrap-Secret")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(h.cfg.BootstrapSecret)) != 1 {
			h.log.Info("auth.generate_key.reject", "remote", r.RemoteAddr)
			writeError(w, http.StatusForbidden, "forbidden", "invalid bootstrap secret")
			return
		}
	}

	var req generateKeyRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	raw, view, err := h.keys.Generate(r.Context(), h.now(), req.Name)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	// The raw key appears exactly once, here.
	writeJSON(w, http.StatusCreated, generateKeyResponse{
		Key: raw,
		keyPayload: keyPayload{
			ID:        view.ID,
			Name:      view.Name,
			CreatedAt: view.CreatedAt,
		},
	})
}

func (h *Handler) handleListKeys(w http.ResponseWriter, r *http.Request) {
	views, err := h.keys.List(r.Context())
	if err != nil {
		writeAuthError(w, err)
		return
	}

	keys := make([]keyPayload, 0, len(views))
	for _, v := range views {
		keys = append(keys, keyPayload{ID: v.ID, Name: v.Name, CreatedAt: v.CreatedAt})
	}
	writeJSON(w, http.StatusOK, listKeysResponse{Keys: keys})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok || id.UserID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	// The gate already verified the token; fetch the fresh view.
	view, err := h.auth.UserByID(r.Context(), id.UserID)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]userPayload{"user": toUserPayload(view)})
}
