package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/rmenezes/jurisearch/internal/api/handlers"
	"github.com/rmenezes/jurisearch/internal/api/middleware"
	"github.com/rmenezes/jurisearch/internal/cache"
	"github.com/rmenezes/jurisearch/internal/config"
	"github.com/rmenezes/jurisearch/internal/consistency"
	"github.com/rmenezes/jurisearch/internal/document"
	"github.com/rmenezes/jurisearch/internal/embedding"
	"github.com/rmenezes/jurisearch/internal/lexical"
	"github.com/rmenezes/jurisearch/internal/queue"
	"github.com/rmenezes/jurisearch/internal/search"
	"github.com/rmenezes/jurisearch/internal/vectorstore"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
	}
}

func (rt *Router) Setup() (http.Handler, error) {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Health endpoints
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// Initialize services
	dimension, _ := embedding.Dimensions(rt.cfg.Embedding.Model)
	producer, err := embedding.NewOpenAIProducer(
		rt.cfg.Embedding.APIKey, rt.cfg.Embedding.BaseURL,
		rt.cfg.Embedding.Model, rt.cfg.Embedding.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("embedding producer: %w", err)
	}

	vs, err := vectorstore.NewPgStore(rt.db, dimension,
		vectorstore.WithSearchBreadth(rt.cfg.Search.SearchBreadth))
	if err != nil {
		return nil, fmt.Errorf("vector store: %w", err)
	}
	lex := lexical.NewPgIndex(rt.db)
	manager := consistency.NewManager(vs, lex, nil)
	docSvc := document.NewService(rt.db, manager, nil)
	queueClient := queue.NewClient(rt.cfg.Redis)
	engine := search.NewEngine(producer, vs, lex, nil,
		search.WithDefaultWeight(rt.cfg.Search.SemanticWeight))

	var searchCache *cache.SearchCache
	if rt.redis != nil {
		searchCache = cache.NewSearchCache(cache.NewCache(rt.redis), rt.cfg.Search.CacheTTL, nil)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		searchH := handlers.NewSearchHandler(engine, searchCache, vs)
		r.Route("/search", func(r chi.Router) {
			r.Post("/", searchH.Search)
			r.Post("/similar", searchH.Similar)
		})
		r.Get("/stats", searchH.Stats)

		caseH := handlers.NewCaseHandler(docSvc, queueClient)
		docH := handlers.NewDocumentHandler(docSvc, queueClient)
		r.Route("/cases", func(r chi.Router) {
			r.Post("/", caseH.Create)
			r.Get("/", caseH.List)
			r.Get("/{id}", caseH.Get)
			r.Delete("/{id}", caseH.Delete)
			r.Get("/{id}/documents", docH.List)
			r.Post("/{id}/documents", docH.Create)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/{id}", docH.Get)
			r.Get("/{id}/status", docH.Status)
			r.Delete("/{id}", docH.Delete)
		})
	})

	return r, nil
}
