package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server runs an http.Server with the same Start/Shutdown lifecycle as the
// gRPC server.
type Server struct {
	srv    *http.Server
	lis    net.Listener
	logger *zap.Logger
}

// NewServer binds addr immediately so that port errors surface at startup.
func NewServer(addr string, handler http.Handler, logger *zap.Logger) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ErrorLog:          zap.NewStdLog(logger),
		},
		lis:    lis,
		logger: logger.Named("http-server"),
	}, nil
}

// Start serves in a goroutine and returns immediately.
func (s *Server) Start() {
	s.logger.Info("HTTP server starting", zap.String("addr", s.lis.Addr().String()))

	go func() {
		if err := s.srv.Serve(s.lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", zap.Error(err))
		}
	}()
}

// Shutdown drains in-flight requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	// Serve closes the listener itself; this covers a server that never started.
	defer func() { _ = s.lis.Close() }()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("forced shutdown due to timeout", zap.Error(err))
		_ = s.srv.Close()
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}
