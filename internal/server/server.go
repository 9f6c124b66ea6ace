// Package server exposes the layout engine over HTTP.
//
// The server keeps one engine per session, identified by UUID. Clients
// create a session by posting a taxonomy tree, then drive the engine through
// the same command surface the embedded API offers: tree updates, ticks, the
// drag protocol, arrangement, focus mode and override management. Sessions
// are evicted after an idle TTL.
//
// Position overrides persist to Redis when configured, to process memory
// otherwise. Layout snapshots can be archived to MongoDB. Prometheus metrics
// for engine passes, ticks, commands and store operations are exposed on
// /metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/radialmap/pkg/engine"
	"github.com/matzehuels/radialmap/pkg/layout"
	"github.com/matzehuels/radialmap/pkg/observability"
	"github.com/matzehuels/radialmap/pkg/store"
)

const (
	// shutdownTimeout bounds the graceful drain of in-flight requests.
	shutdownTimeout = 10 * time.Second

	// snapshotCollection is the MongoDB collection snapshots archive into.
	snapshotCollection = "snapshots"
)

// Config holds the server configuration.
type Config struct {
	// Addr is the listen address (e.g. ":8080").
	Addr string

	// Mode is the default collision strategy for new sessions.
	Mode string

	// Seed feeds each session's layout randomness.
	Seed uint64

	// Layout is the engine tuning shared by all sessions.
	Layout layout.Config

	// SessionTTL evicts sessions idle longer than this.
	SessionTTL time.Duration

	// Redis override persistence; empty Addr selects the in-memory store.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MongoDB snapshot archive; empty URI disables archiving.
	MongoURI      string
	MongoDatabase string

	Logger *log.Logger
}

// Server is the layout API server.
type Server struct {
	cfg      Config
	logger   *log.Logger
	sessions *sessionManager
	store    store.Store
	metrics  *metrics

	redis   *store.RedisStore
	mongo   *mongo.Client
	archive *mongo.Collection

	http *http.Server
}

// New creates a server and connects its backends. The context bounds the
// initial Redis and MongoDB handshakes.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if err := cfg.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}
	if cfg.Mode == "" {
		cfg.Mode = string(engine.ModeStatic)
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	s := &Server{
		cfg:      cfg,
		logger:   cfg.Logger,
		sessions: newSessionManager(),
		metrics:  newMetrics(),
	}

	s.store = store.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rs, err := store.NewRedisStore(ctx, store.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.redis = rs
		s.store = rs
		s.logger.Info("override store connected", "backend", "redis", "addr", cfg.RedisAddr)
	}

	if cfg.MongoURI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("ping mongodb: %w", err)
		}
		s.mongo = client
		s.archive = client.Database(cfg.MongoDatabase).Collection(snapshotCollection)
		s.logger.Info("snapshot archive connected", "backend", "mongodb", "database", cfg.MongoDatabase)
	}

	observability.SetEngineHooks(s.metrics)
	observability.SetStoreHooks(s.metrics)

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Router builds the HTTP routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Use(s.sessionCtx)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/positions", s.handlePositions)
			r.Put("/tree", s.handleUpdateTree)
			r.Put("/expanded", s.handleSetExpanded)
			r.Put("/mode", s.handleSetMode)
			r.Post("/ticks", s.handleTicks)

			r.Post("/drag/begin", s.handleDragBegin)
			r.Post("/drag/move", s.handleDragMove)
			r.Post("/drag/end", s.handleDragEnd)
			r.Post("/drag/cancel", s.handleDragCancel)

			r.Post("/arrange", s.handleArrange)
			r.Post("/focus", s.handleFocus)
			r.Delete("/focus", s.handleUnfocus)
			r.Post("/wobble", s.handleWobble)

			r.Get("/overrides", s.handleGetOverrides)
			r.Post("/overrides/save", s.handleSaveOverrides)
			r.Post("/overrides/load", s.handleLoadOverrides)
			r.Delete("/overrides/{nodeID}", s.handleResetOverride)
			r.Delete("/overrides", s.handleResetAllOverrides)

			r.Get("/export", s.handleExport)
			r.Post("/archive", s.handleArchive)
		})
	})

	return r
}

// Run serves HTTP until the context is canceled, then drains gracefully. It
// also runs the session janitor that evicts idle sessions.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(s.cfg.SessionTTL / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				evicted := s.sessions.evictIdle(s.cfg.SessionTTL)
				if evicted > 0 {
					s.metrics.sessionsActive.Sub(float64(evicted))
					s.logger.Info("evicted idle sessions", "count", evicted)
				}
			}
		}
	})

	return g.Wait()
}

// Close releases backend connections. It does not stop the HTTP listener;
// cancel the Run context for that.
func (s *Server) Close() error {
	var firstErr error
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			firstErr = err
		}
	}
	if s.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.mongo.Disconnect(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// logRequests emits one structured log line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
