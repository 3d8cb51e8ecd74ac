package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/kimhsiao/promptstash/internal/export"
	"github.com/kimhsiao/promptstash/internal/i18n"
	"github.com/kimhsiao/promptstash/internal/logging"
	"github.com/kimhsiao/promptstash/internal/view"
)

// Server wires the prompt controller, the export service, and the
// WebSocket hub behind a localhost HTTP API. A single mutex serializes
// controller access across requests.
type Server struct {
	addr       string
	controller *view.Controller
	exporter   *export.Service
	hub        *WSHub
	printer    *i18n.Printer
	now        func() time.Time

	mu   sync.Mutex
	http *http.Server
}

// Config carries the dependencies for a Server.
type Config struct {
	Addr       string
	Controller *view.Controller
	Exporter   *export.Service
	Printer    *i18n.Printer
}

// New builds a Server and its route table.
func New(cfg Config) *Server {
	s := &Server{
		addr:       cfg.Addr,
		controller: cfg.Controller,
		exporter:   cfg.Exporter,
		hub:        NewWSHub(),
		printer:    cfg.Printer,
		now:        time.Now,
	}

	s.http = &http.Server{
		Addr:         s.addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// routes builds the HTTP route table.
func (s *Server) routes() http.Handler {
	prompts := NewPromptHandler(s)
	exports := NewExportHandler(s)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /prompts", prompts.ListPrompts)
	mux.HandleFunc("POST /prompts", prompts.CreatePrompt)
	mux.HandleFunc("POST /prompts/reorder", prompts.ReorderPrompts)
	mux.HandleFunc("GET /prompts/{id}", prompts.GetPrompt)
	mux.HandleFunc("PUT /prompts/{id}", prompts.UpdatePrompt)
	mux.HandleFunc("DELETE /prompts/{id}", prompts.DeletePrompt)
	mux.HandleFunc("GET /tags", prompts.ListTags)
	mux.HandleFunc("POST /export", exports.ExportPrompts)
	mux.HandleFunc("POST /import", exports.ImportPrompts)
	mux.HandleFunc("GET /healthz", Health)
	mux.HandleFunc("GET /ws", HandleWebSocket(s.hub))
	return mux
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Hub returns the event hub.
func (s *Server) Hub() *WSHub {
	return s.hub
}

// Start serves until the context is canceled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info("HTTP server listening", map[string]interface{}{"addr": s.addr})
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
