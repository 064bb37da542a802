// Package api serves the MCP endpoint over HTTP together with the token and
// health endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hazyhaar/sqlitemcp/internal/auth"
)

// maxBodySize bounds the /auth/token request body.
const maxBodySize = 4 * 1024

// API routes HTTP requests to the MCP handler and the auxiliary endpoints.
type API struct {
	mcp          http.Handler
	auth         *auth.Auth
	passwordHash string
	limiter      *RateLimiter
}

// Option configures an API.
type Option func(*API)

// WithAuth requires bearer tokens on /mcp and enables POST /auth/token when
// passwordHash is set.
func WithAuth(a *auth.Auth, passwordHash string) Option {
	return func(api *API) {
		api.auth = a
		api.passwordHash = passwordHash
	}
}

// WithRateLimit caps requests per minute per client IP. Zero disables it.
func WithRateLimit(perMinute int) Option {
	return func(api *API) {
		if perMinute > 0 {
			api.limiter = NewRateLimiter(perMinute, time.Minute)
		}
	}
}

// New wraps mcpHandler, which serves /mcp.
func New(mcpHandler http.Handler, opts ...Option) *API {
	a := &API{mcp: mcpHandler}
	for _, o := range opts {
		o(a)
	}
	return a
}

// RegisterRoutes mounts /mcp, /auth/token and /healthz on mux.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/mcp", RateLimit(a.limiter, RequireAuth(a.auth, Tracing(a.mcp))))
	mux.Handle("POST /auth/token", RateLimit(a.limiter, http.HandlerFunc(a.handleToken)))
	mux.HandleFunc("GET /healthz", a.handleHealth)
}

// Handler returns the full HTTP handler.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	a.RegisterRoutes(mux)
	return SecurityHeaders(mux)
}

func (a *API) handleToken(w http.ResponseWriter, r *http.Request) {
	if a.auth == nil || a.passwordHash == "" {
		jsonError(w, "token issuance disabled", http.StatusNotFound)
		return
	}
	var req struct {
		Subject  string `json:"subject"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !auth.CheckPassword(a.passwordHash, req.Password) {
		jsonError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	subject := req.Subject
	if subject == "" {
		subject = "operator"
	}
	token, err := a.auth.GenerateToken(subject)
	if err != nil {
		slog.Error("token generation failed", "component", "http", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"token": token})
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, map[string]string{"status": "ok"})
}

func jsonResp(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	jsonResp(w, status, map[string]string{"error": msg})
}
