package http

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wfap/pkg/platform/httputil"
)

// RouterConfig carries the transport-level settings NewRouter needs.
type RouterConfig struct {
	PeerSecret     []byte // HMAC secret shared with consumers
	Audience       string // name consumers put in the token aud claim
	AdminTokenHash string // bcrypt hash guarding the audit endpoints
}

// NewRouter assembles the bank agent's full route table: peer-authenticated
// WFAP endpoints, admin-guarded audit trail, and the unauthenticated probes.
func NewRouter(h *Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(PeerAuth(cfg.PeerSecret, cfg.Audience, logger))
		h.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(AdminAuth(cfg.AdminTokenHash, logger))
		h.RegisterAdmin(r)
	})

	return r
}
