package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/generator"
	"github.com/conorfennell/flashlearn/internal/library"
	"github.com/conorfennell/flashlearn/internal/storage"
	"github.com/conorfennell/flashlearn/internal/study"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Importer commits an uploaded card file.
type Importer interface {
	ImportReader(name, contentType string, r io.Reader) ([]domain.Card, error)
}

// Deps are the collaborators a Server needs.
type Deps struct {
	Controller  *study.Controller
	Library     *library.Library
	Importer    Importer
	Generator   generator.Generator
	Store       storage.Store
	Logger      *slog.Logger
	CORSOrigins []string
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	Deps
	router    *http.ServeMux
	templates *template.Template
	handler   http.Handler
}

// NewServer creates and configures a new server.
func NewServer(deps Deps) (*Server, error) {
	tpl, err := template.New("").Funcs(funcs).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Server{
		Deps:      deps,
		router:    http.NewServeMux(),
		templates: tpl,
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	s.handler = Logging(deps.Logger)(s.router)
	return s, nil
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() error {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create sub-filesystem for static assets: %w", err)
	}
	s.router.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.HandleFunc("GET /{$}", s.handleIndex())
	s.router.HandleFunc("GET /health", s.handleHealth())

	// HTMX partials
	s.router.HandleFunc("POST /session", s.handleStart())
	s.router.HandleFunc("GET /session", s.handleSession())
	s.router.HandleFunc("POST /session/flip", s.handleFlip())
	s.router.HandleFunc("POST /session/hint", s.handleHint())
	s.router.HandleFunc("POST /session/judge", s.handleJudge())
	s.router.HandleFunc("POST /reset", s.handleReset())
	s.router.HandleFunc("POST /import", s.handleImport())
	s.router.HandleFunc("POST /generate", s.handleGenerate())
	s.router.HandleFunc("POST /darkmode", s.handleDarkMode())

	api := cors.New(cors.Options{
		AllowedOrigins: s.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept", "Origin"},
		MaxAge:         86400,
	})
	s.router.Handle("/api/session", api.Handler(http.HandlerFunc(s.handleAPISession())))
	return nil
}

// ListenAndServe runs the server on addr until ctx is cancelled, then
// shuts it down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("Starting server", "address", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.Logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
