// Package api provides the HTTP surface for the blueprint conversation.
//
// It serves an embedded single-page chat UI at the root and JSON endpoints for
// submitting turns, inspecting the session, resetting it, and downloading the
// exported blueprint.
package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/forgeline/blueprint/internal/flow"
	"github.com/forgeline/blueprint/internal/models"
)

// DefaultAddr is the default listen address.
const DefaultAddr = ":8080"

// Orchestrator is the conversation engine the server drives.
type Orchestrator interface {
	SubmitTurn(ctx context.Context, userText string) (*models.StructuredReply, error)
	ExportBlueprint() (string, error)
	Reset()
	Snapshot() flow.Snapshot
}

// Server hosts the chat page and the conversation API.
type Server struct {
	addr         string
	accessCode   string
	orchestrator Orchestrator
	httpServer   *http.Server
}

// Opt configures the server.
type Opt func(*Server)

// WithAddr sets the listen address (defaults to DefaultAddr).
func WithAddr(addr string) Opt {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithAccessCode gates every endpoint except the chat page behind a shared
// code. Empty disables the gate.
func WithAccessCode(code string) Opt {
	return func(s *Server) { s.accessCode = code }
}

// NewServer creates the server around an orchestrator.
func NewServer(orchestrator Orchestrator, opts ...Opt) *Server {
	s := &Server{addr: DefaultAddr, orchestrator: orchestrator}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the route table. Exposed separately so tests can drive the
// server through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.pageHandler)
	mux.HandleFunc("/api/turn", s.gate(s.turnHandler))
	mux.HandleFunc("/api/session", s.gate(s.sessionHandler))
	mux.HandleFunc("/api/reset", s.gate(s.resetHandler))
	mux.HandleFunc("/blueprint.md", s.gate(s.exportHandler))
	return mux
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("Server.Run: blueprint API listening", "addr", s.addr, "access_gate", s.accessCode != "")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// gate enforces the access code when one is configured. The code is accepted
// from the X-Access-Code header or the code query parameter.
func (s *Server) gate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.accessCode == "" {
			next(w, r)
			return
		}
		code := r.Header.Get("X-Access-Code")
		if code == "" {
			code = r.URL.Query().Get("code")
		}
		if subtle.ConstantTimeCompare([]byte(code), []byte(s.accessCode)) != 1 {
			slog.Warn("Server.gate: access code rejected", "path", r.URL.Path)
			writeJSONResponse(w, http.StatusUnauthorized, models.Error("Invalid or missing access code"))
			return
		}
		next(w, r)
	}
}
