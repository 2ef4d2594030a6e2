package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mrops-br/products-api/internal/infrastructure/config"
	_ "github.com/mrops-br/products-api/internal/infrastructure/http/docs"
	"github.com/mrops-br/products-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/products-api/internal/infrastructure/http/middleware"
	"github.com/mrops-br/products-api/internal/infrastructure/http/response"
	"github.com/mrops-br/products-api/internal/infrastructure/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const instrumentationName = "github.com/mrops-br/products-api/internal/infrastructure/http"

var (
	errRouteNotFound    = errors.New("route not found")
	errMethodNotAllowed = errors.New("method not allowed")
)

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	config    *config.Config
	handler   *handler.ProductHandler
	logger    *slog.Logger
	telemetry *telemetry.Telemetry
	http      *http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	cfg *config.Config,
	handler *handler.ProductHandler,
	telem *telemetry.Telemetry,
	logger *slog.Logger,
) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		handler:   handler,
		logger:    logger,
		telemetry: telem,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.http = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	return s
}

// setupMiddleware configures the middleware chain
func (s *Server) setupMiddleware() {
	meter := s.telemetry.MeterProvider.Meter(instrumentationName)

	s.router.Use(middleware.RequestID)
	s.router.Use(chimiddleware.StripSlashes)
	s.router.Use(middleware.StructuredLogger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.CORS(s.config.CORS.AllowedOrigins))
	s.router.Use(middleware.ActiveRequestsMiddleware(meter))

	if s.config.Metrics.DurationMilliseconds {
		s.router.Use(middleware.DurationMillisecondsMiddleware(meter))
	}

	if s.config.Server.TrustProxy {
		s.router.Use(chimiddleware.RealIP)
	}

	if s.config.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(s.config.RateLimit.RPS, s.config.RateLimit.Burst)
		s.router.Use(limiter.Middleware)
	}
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, http.StatusNotFound, errRouteNotFound)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, http.StatusMethodNotAllowed, errMethodNotAllowed)
	})

	// Inline group middleware runs after chi has matched the full pattern.
	// Keep these routes flat: a mounted subrouter would only expose its prefix.
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.HTTPRouteContext())

		r.Get("/", s.handler.Health)
		r.Get("/health", s.handler.Health)

		r.Get("/api/v1/products", s.handler.ListProducts)
		r.Post("/api/v1/products", s.handler.CreateProduct)
		r.Get("/api/v1/products/{id}", s.handler.GetProduct)
		r.Put("/api/v1/products/{id}", s.handler.UpdateProduct)
		r.Patch("/api/v1/products/{id}", s.handler.UpdateProduct)
		r.Delete("/api/v1/products/{id}", s.handler.DeleteProduct)

		if s.config.Admin.ResetEnabled {
			r.Delete("/api/v1/admin/products", s.handler.ResetProducts)
		}
	})

	// Prometheus metrics endpoint - exposes OpenTelemetry metrics
	s.router.Get("/metrics", promhttp.HandlerFor(s.telemetry.Registry, promhttp.HandlerOpts{}).ServeHTTP)

	s.router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/index.html", http.StatusMovedPermanently)
	})
	s.router.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))
}

// Handler returns the router wrapped with otelhttp, which provides
// http.server.request.duration and the server span for every request.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "http-server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithTracerProvider(s.telemetry.TracerProvider),
		otelhttp.WithMeterProvider(s.telemetry.MeterProvider),
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/metrics"
		}),
	)
}

// Start blocks serving HTTP until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		slog.String("address", s.http.Addr),
	)

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.http.Shutdown(ctx)
}
