package app

import (
	"context"
	"log/slog"
	"net/http"

	"contribdir.dev/internal/directory"
	"contribdir.dev/internal/httpapi"
)

// Server wraps the HTTP server hosting the directory API.
type Server struct {
	srv *http.Server
}

func NewServer(cs *directory.ClientSet) *Server {
	h := httpapi.NewHandler(cs)
	return &Server{srv: &http.Server{Handler: h.Router()}}
}

func (s *Server) ListenAndServe(addr string) error {
	s.srv.Addr = addr
	slog.Info("Server starting", "addr", addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
