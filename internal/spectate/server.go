package spectate

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/park285/llm-chess-arena/internal/obslog"
)

// Server exposes a hub over HTTP. Watchers connect to /watch.
type Server struct {
	hub *Hub
	srv *http.Server
}

func NewServer(hub *Hub, addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/watch", hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return &Server{
		hub: hub,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves in the background. Listen errors other than a clean
// shutdown are logged, not fatal: a match can finish without its
// spectator feed.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			obslog.L().Error("spectate_server_error", zap.String("addr", s.srv.Addr), zap.Error(err))
		}
	}()
	obslog.L().Info("spectate_server_started", zap.String("addr", s.srv.Addr))
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.srv.Shutdown(ctx)
}
