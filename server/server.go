// Package server hosts the HTTP surface of notegraph.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/internal/profile"
	apiv1 "github.com/hrygo/notegraph/server/router/api/v1"
	"github.com/hrygo/notegraph/server/stats"
	"github.com/hrygo/notegraph/server/view"
	"github.com/hrygo/notegraph/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	collector  *stats.Collector
	listener   net.Listener
}

func NewServer(_ context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	s := &Server{
		Profile:   profile,
		Store:     store,
		collector: stats.NewCollector(store, profile.CreatorID),
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Int64("latency_ms", v.Latency.Milliseconds()),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				slog.LogAttrs(context.Background(), slog.LevelError, "request failed", attrs...)
				return nil
			}
			slog.LogAttrs(context.Background(), slog.LevelDebug, "request", attrs...)
			return nil
		},
	}))
	s.echoServer = echoServer

	source := &view.StoreSource{Store: store, CreatorID: profile.CreatorID}
	apiv1.NewAPIV1Service(profile, source, s.collector).RegisterGateway(echoServer)
	return s, nil
}

// Start listens on the profile address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.listener = listener
	s.collector.Start(ctx)

	go func() {
		s.echoServer.Listener = listener
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")
	s.collector.Stop()
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", slog.String("error", err.Error()))
	}
	slog.Info("server stopped properly")
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}
