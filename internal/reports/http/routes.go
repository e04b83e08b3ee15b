package reporthttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/stockpulse/stockpulse/internal/shared"
)

// MountRoutes registers reporting endpoints onto the router. Export and
// download routes carry a per-actor rate limit; report generation is
// expensive enough that a runaway client must not exhaust the pipeline.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(20, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Post("/reports/generate", h.handleGenerate)
	})
	r.Get("/reports/exports/recent", h.handleRecentExports)
	r.Get(FileBasePath+"/{filename}", h.handleDownload)
}

func rateLimitKey(r *http.Request) (string, error) {
	if actor := shared.ActorFromContext(r.Context()); actor != nil && actor.ID != "" {
		return "actor:" + actor.ID, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
