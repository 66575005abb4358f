package http

import (
	"context"
	"net/http"

	"gitlab.com/nevasik7/alerting/logger"

	"personastats/internal/api/http/handlers"
	"personastats/internal/api/http/mw"
	"personastats/internal/config"
	"personastats/internal/security"
	"personastats/internal/service"
	rds "personastats/internal/stores/redis"
)

type ServerDeps struct {
	Logger    logger.Logger
	Cfg       *config.Config
	Verifier  *security.RS256Verifier // may be nil if jwt.enabled=false
	RdbClient *rds.Client             // may be nil, disables rate limiting
	Svc       *service.IndexerService
}

type Server struct {
	log logger.Logger
	srv *http.Server
}

func NewServer(deps *ServerDeps) *Server {
	h := handlers.NewHandler(deps.Logger, deps.Svc)

	logMW := mw.NewLogging(deps.Logger)
	corsMW := (*mw.CORSMiddleware)(nil)
	if deps.Cfg.API.HTTP.CORS.Enabled {
		corsMW = mw.NewCORSConfig(&deps.Cfg.API.HTTP.CORS)
	}

	var jwtMW *mw.JWTMiddleware
	if deps.Verifier != nil {
		jwtMW, _ = mw.NewJWTMiddleware(deps.Verifier)
	}

	var rateLimitMW *mw.RateLimitMiddleware
	if deps.RdbClient != nil {
		rateLimitMW = mw.NewRateLimit(deps.RdbClient.Client, mw.RateLimitConfig{
			BySub: mw.RateBucket{
				RefillPerSec: deps.Cfg.RateLimit.BySub.RefillPerSec,
				Burst:        deps.Cfg.RateLimit.BySub.Burst,
			},
			ByIP: mw.RateBucket{
				RefillPerSec: deps.Cfg.RateLimit.ByIP.RefillPerSec,
				Burst:        deps.Cfg.RateLimit.ByIP.Burst,
			},
			Verifier: deps.Verifier,
		})
	}

	router := BuildRouter(h, logMW, rateLimitMW, jwtMW, corsMW)

	addr := deps.Cfg.API.HTTP.Addr
	if addr == "" {
		addr = ":8080"
	}

	return &Server{
		log: deps.Logger,
		srv: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  deps.Cfg.API.HTTP.ReadTimeout,
			WriteTimeout: deps.Cfg.API.HTTP.WriteTimeout,
			IdleTimeout:  deps.Cfg.API.HTTP.IdleTimeout,
		},
	}
}

func (s *Server) Start() error {
	s.log.Infof("HTTP server listening on %s", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
