package server

import (
	"context"
	"net/http"
	"time"

	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/servicedesk-be/internal/access"
	"github.com/hongminglow/servicedesk-be/internal/auth"
	"github.com/hongminglow/servicedesk-be/internal/config"
	"github.com/hongminglow/servicedesk-be/internal/http/handlers"
	"github.com/hongminglow/servicedesk-be/internal/http/respond"
	"github.com/hongminglow/servicedesk-be/internal/middleware"
	"github.com/hongminglow/servicedesk-be/internal/notify"
	"github.com/hongminglow/servicedesk-be/internal/storage"
)

// Deps are the collaborators the server routes to.
type Deps struct {
	Store    storage.Store
	DB       handlers.Pinger
	Notifier notify.Notifier
	Log      *logrus.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
	log   logrus.FieldLogger
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	log := deps.Log
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(log)
	}

	handler := NewHandler(cfg, deps.Store, deps.DB, notifier, log)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer, log: log}
}

// NewHandler builds the full routing tree.
func NewHandler(cfg config.Config, store storage.Store, db handlers.Pinger, notifier notify.Notifier, log *logrus.Logger) http.Handler {
	respond.SetLogger(log.WithField("component", "respond"))
	gate := access.New(cfg.Access(), store, log.WithField("component", "access"))
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	limiter := middleware.NewRateLimiter(cfg.LoginPerMinute, cfg.LoginBurst, cfg.TrustedProxies)
	rec := handlers.NewRecorder(store, log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(access.Collectors()...)
	registry.MustRegister(middleware.Collectors()...)

	root := mux.NewRouter()
	root.Use(middleware.Metrics)
	root.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "not found")
	})
	root.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	root.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	handlers.NewHealthHandler(time.Now(), db).Register(root)

	protected := root.NewRoute().Subrouter()
	protected.Use(middleware.Authenticate(tokens))

	handlers.NewAuthHandler(handlers.AuthOptions{
		Store:    store,
		Tokens:   tokens,
		Notifier: notifier,
		Limiter:  limiter,
		ResetTTL: cfg.ResetTokenTTL,
		Recorder: rec,
		Log:      log.WithField("component", "auth"),
	}).Register(root, protected)
	handlers.NewUserHandler(store, notifier, cfg.ResetTokenTTL, rec, log).Register(protected, gate)
	handlers.NewPermissionHandler(store, store, gate, rec, log).Register(protected)
	handlers.NewClientHandler(store, rec, log).Register(protected, gate)
	handlers.NewQuoteHandler(store, rec, log).Register(protected, gate)
	handlers.NewServiceOrderHandler(store, rec, log).Register(protected, gate)
	handlers.NewVisitHandler(store, rec, log).Register(protected, gate)
	handlers.NewChatHandler(store, rec, log).Register(protected, gate)
	handlers.NewActivityHandler(store, log).Register(protected, gate)

	var h http.Handler = root
	h = middleware.Logging(log)(h)
	h = middleware.RequestID(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)
	h = ghandlers.RecoveryHandler(ghandlers.RecoveryLogger(log), ghandlers.PrintRecoveryStack(true))(h)
	return h
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	s.log.WithField("addr", s.inner.Addr).Info("servicedesk backend listening")
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
