package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/inboxpilot/mailextract/internal/api/handlers"
	"github.com/inboxpilot/mailextract/internal/api/middleware"
	"github.com/inboxpilot/mailextract/internal/auth"
	"github.com/inboxpilot/mailextract/internal/cache"
	"github.com/inboxpilot/mailextract/internal/config"
	"github.com/inboxpilot/mailextract/internal/inbound"
	"github.com/inboxpilot/mailextract/internal/queue"
	"github.com/inboxpilot/mailextract/internal/storage"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	blobs storage.Storage
	jobs  *queue.Client
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, blobs storage.Storage, jobs *queue.Client, cfg *config.Config) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		blobs: blobs,
		jobs:  jobs,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	inboundSvc := inbound.NewService(rt.db, rt.blobs, rt.jobs, nil)
	outcomes := cache.NewOutcomeCache(cache.NewCache(rt.redis))

	inboundHandler := handlers.NewInboundHandler(inboundSvc)
	attachmentsHandler := handlers.NewAttachmentsHandler(inboundSvc, outcomes)

	authn := auth.NewMiddleware(rt.cfg.Auth.JWTSecret, rt.cfg.Auth.APIKey, rt.cfg.Auth.APIKeyHeader)

	r.Route("/v1", func(r chi.Router) {
		// Inbound webhook: provider-authenticated upstream, no bearer auth here.
		r.Post("/inbound/email", inboundHandler.Receive)

		r.Group(func(r chi.Router) {
			r.Use(authn.Authenticate)
			r.Get("/attachments/{id}", attachmentsHandler.Get)
			r.Get("/attachments/{id}/pages", attachmentsHandler.ListPages)
			r.Get("/attachments/{id}/search", attachmentsHandler.SearchPages)
		})
	})

	return r
}
