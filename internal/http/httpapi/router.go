package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vishalgoel2/telco-incident-analysis/internal/http/handlers"
	"github.com/vishalgoel2/telco-incident-analysis/internal/middleware"
)

// Options tunes the shared middleware stack.
type Options struct {
	RateLimitPerMin int
	AllowedOrigins  []string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(origins),
		middleware.RateLimit(opts.RateLimitPerMin, time.Minute),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/incidents", func(r chi.Router) {
		r.Get("/", app.ListIncidents)
		r.Post("/", app.CreateIncident)
		r.Get("/{id}", app.GetIncident)
		r.Put("/{id}", app.UpdateIncident)
	})

	return r
}
