package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"personastats/internal/api/http/handlers"
	"personastats/internal/api/http/mw"
	"personastats/internal/metrics"
)

func BuildRouter(
	h *handlers.Handler,
	logMW *mw.LoggingMiddleware,
	rateLimitMW *mw.RateLimitMiddleware,
	jwtMW *mw.JWTMiddleware,
	corsMW *mw.CORSMiddleware,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	if logMW != nil {
		r.Use(logMW.Handler)
	}
	if corsMW != nil {
		r.Use(corsMW.Handler())
	}

	// tech endpoint not auth
	r.Get("/healthz", h.Healthz)
	r.Get("/readiness", h.Readiness)
	r.Mount("/metrics", metrics.Handler())

	// api endpoint with rate limit and jwt
	protected := chi.NewRouter()
	if rateLimitMW != nil {
		protected.Use(rateLimitMW.Handler)
	}
	if jwtMW != nil {
		protected.Use(jwtMW.Handler)
	}

	protected.Route("/api", func(apiR chi.Router) {
		apiR.Route("/stats", func(st chi.Router) {
			st.Get("/global", h.GlobalStats)
			st.Get("/daily/{date}", h.DailyStats)
		})
		apiR.Route("/personas", func(pp chi.Router) {
			pp.Get("/{id}", h.Persona)
			pp.Get("/{id}/daily/{date}", h.PersonaDailyStats)
		})
	})

	r.Mount("/", protected)
	return r
}
