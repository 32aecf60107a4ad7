package api

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/flow"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/plateshare/plateshare/internal/auth"
	"github.com/plateshare/plateshare/internal/catalog"
	"github.com/plateshare/plateshare/internal/ledger"
	"github.com/plateshare/plateshare/internal/lifecycle"
)

// Deps are the services the API serves.
type Deps struct {
	Catalog   *catalog.Catalog
	Ledger    *ledger.Ledger
	Lifecycle *lifecycle.Coordinator
	Auth      *auth.Provider
	Tokens    TokenRevoker
	Logger    logrus.FieldLogger
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}

	foods := &FoodsHandler{Catalog: d.Catalog, Log: d.Logger}
	requests := &RequestsHandler{Catalog: d.Catalog, Ledger: d.Ledger, Lifecycle: d.Lifecycle, Log: d.Logger}
	authHandler := &AuthHandler{Auth: d.Auth, Tokens: d.Tokens, Log: d.Logger}

	mux := flow.New()
	mux.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, codeNotFound, "no such route")
	})

	mux.Use(LoggingMiddleware(d.Logger))

	mux.Handle("/metrics", promhttp.Handler(), http.MethodGet)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}, http.MethodGet)

	mux.Group(func(r *flow.Mux) {
		r.Use(IdentityMiddleware(d.Auth, d.Logger))

		// Public reads.
		r.HandleFunc("/api/auth/me", instrument("/api/auth/me", authHandler.Me), http.MethodGet)
		r.HandleFunc("/api/foods", instrument("/api/foods", foods.List), http.MethodGet)
		r.HandleFunc("/api/foods/featured", instrument("/api/foods/featured", foods.Featured), http.MethodGet)
		r.HandleFunc("/api/foods/:id", instrument("/api/foods/:id", foods.Get), http.MethodGet)
		r.HandleFunc("/api/foods/:id/image", instrument("/api/foods/:id/image", foods.Image), http.MethodGet)

		// Signed-in callers.
		r.Group(func(r *flow.Mux) {
			r.Use(RequireIdentity)

			r.HandleFunc("/api/auth/logout", instrument("/api/auth/logout", authHandler.Logout), http.MethodPost)

			r.HandleFunc("/api/foods", instrument("/api/foods", foods.Create), http.MethodPost)
			r.HandleFunc("/api/foods/:id", instrument("/api/foods/:id", foods.Update), http.MethodPut)
			r.HandleFunc("/api/foods/:id", instrument("/api/foods/:id", foods.Delete), http.MethodDelete)
			r.HandleFunc("/api/foods/:id/status", instrument("/api/foods/:id/status", foods.SetStatus), http.MethodPatch)

			r.HandleFunc("/api/foods/:id/requests", instrument("/api/foods/:id/requests", requests.ListByFood), http.MethodGet)
			r.HandleFunc("/api/foods/:id/requests", instrument("/api/foods/:id/requests", requests.Create), http.MethodPost)

			r.HandleFunc("/api/requests", instrument("/api/requests", requests.Inbox), http.MethodGet)
			r.HandleFunc("/api/requests/:id", instrument("/api/requests/:id", requests.Get), http.MethodGet)
			r.HandleFunc("/api/requests/:id", instrument("/api/requests/:id", requests.UpdateStatus), http.MethodPatch)
			r.HandleFunc("/api/requests/:id/accept", instrument("/api/requests/:id/accept", requests.Accept), http.MethodPost)
			r.HandleFunc("/api/requests/:id/reject", instrument("/api/requests/:id/reject", requests.Reject), http.MethodPost)
		})
	})

	return mux
}

// Server is the HTTP server for the API.
type Server struct {
	server *http.Server
}

// ServerConfig holds the listener settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewServer wraps handler in an http.Server.
func NewServer(cfg ServerConfig, handler http.Handler) *Server {
	return &Server{
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			MaxHeaderBytes:    1 << 20,
		},
	}
}

// Start listens until Stop is called. It returns http.ErrServerClosed
// after a clean shutdown.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
