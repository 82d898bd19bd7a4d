package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server HTTP 服务（后台运行，Stop 时优雅关闭）
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	s := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return &Server{httpServer: s, logger: logger}
}

// Start serves in the background. The channel receives the listener error,
// if any, and is closed when serving ends.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	s.logger.Info("Starting car-assistant HTTP server", zap.String("addr", s.httpServer.Addr))
	go func() {
		defer close(errCh)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", zap.Error(err))
			errCh <- err
		}
	}()
	return errCh
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping car-assistant HTTP server")
	return s.httpServer.Shutdown(ctx)
}
