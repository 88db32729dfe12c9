// Package httpapi serves the websocket event stream and the REST draft
// and revision endpoints.
package httpapi

import (
	"context"
	"net/http"

	"github.com/lokutor-ai/lokutor-dictation/pkg/eventbus"
	"github.com/lokutor-ai/lokutor-dictation/pkg/logging"
	"github.com/lokutor-ai/lokutor-dictation/pkg/store"
)

// StatusProvider reports operational counters for GET /status.
type StatusProvider interface {
	Status() map[string]interface{}
}

// Server wires the event bus and draft store to an http.ServeMux,
// grounded on hubenschmidt-asr-llm-tts/cmd/gateway/routes.go's
// registerRoutes(mux, deps) pattern.
type Server struct {
	bus    *eventbus.Bus
	store  store.DraftStore
	status StatusProvider
	log    logging.Logger
	srv    *http.Server
}

// New builds a Server bound to addr (host:port). status may be nil.
func New(addr string, bus *eventbus.Bus, draftStore store.DraftStore, status StatusProvider, log logging.Logger) *Server {
	s := &Server{bus: bus, store: draftStore, status: status, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.eventsHandler)
	mux.HandleFunc("GET /drafts", s.handleListDrafts)
	mux.HandleFunc("GET /drafts/{draft_id}", s.handleGetDraft)
	mux.HandleFunc("POST /api/revisions", s.handlePutRevision)
	mux.HandleFunc("GET /api/revisions/{draft_id}", s.handleListRevisions)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)

	s.srv = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Start begins serving in a background goroutine; errors (other than a
// clean shutdown) are reported via errCh.
func (s *Server) Start(errCh chan<- error) {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}
	writeJSON(w, http.StatusOK, s.status.Status())
}
