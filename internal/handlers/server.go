package handlers

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/pep299/article-markdown/internal/config"
	"github.com/pep299/article-markdown/internal/convert"
	"github.com/pep299/article-markdown/internal/extract"
	"github.com/pep299/article-markdown/internal/fetch"
	"github.com/pep299/article-markdown/internal/model"
	"github.com/pep299/article-markdown/internal/pipeline"
)

// Version is reported by the health endpoint; set at build time
var Version = "dev"

// Runner converts one URL to Markdown
type Runner interface {
	Run(ctx context.Context, req model.ExtractionRequest) (*model.ExtractionResult, error)
}

// Server holds the HTTP handlers and their dependencies
type Server struct {
	config   *config.Config
	pipeline Runner
	page     *template.Template
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config) (*Server, error) {
	fetcher := fetch.NewClient(cfg.FetchTimeout,
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBytes(cfg.FetchMaxBytes),
	)

	return newServer(cfg, pipeline.New(fetcher, extract.New(), convert.New()))
}

func newServer(cfg *config.Config, runner Runner) (*Server, error) {
	page, err := parsePage()
	if err != nil {
		return nil, err
	}

	return &Server{
		config:   cfg,
		pipeline: runner,
		page:     page,
	}, nil
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)

	// Page
	r.HandleFunc("/", s.pageHandler).Methods("GET", "HEAD")

	// Health check
	r.HandleFunc("/health", s.healthHandler).Methods("GET")

	// API routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.corsMiddleware)
	api.HandleFunc("/extract", s.extractHandler).Methods("GET", "OPTIONS")

	return r
}

// Middleware functions

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware tags each request with an id and logs it when done
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()
		r = r.WithContext(logger.WithContext(r.Context()))

		// Wrap the ResponseWriter to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.statusCode).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
