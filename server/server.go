// Package server assembles the echo HTTP server.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/mailsense/internal/profile"
	"github.com/hrygo/mailsense/plugin/milvus"
	apiv1 "github.com/hrygo/mailsense/server/router/api/v1"
	"github.com/hrygo/mailsense/server/retrieval"
	"github.com/hrygo/mailsense/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store
	Index   *milvus.Service

	echoServer *echo.Echo
}

// NewServer wires the API routes. Collection setup must already be done
// by the caller: the listener only starts accepting traffic after the
// index schema exists.
func NewServer(profile *profile.Profile, st *store.Store, index *milvus.Service, retrievalService *retrieval.Service) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		Profile:    profile,
		Store:      st,
		Index:      index,
		echoServer: e,
	}

	e.GET("/healthz", s.healthz)
	apiv1.NewAPIV1Service(profile, st, retrievalService).RegisterRoutes(e)

	return s
}

// Start runs the HTTP listener until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", slog.String("address", address), slog.String("version", s.Profile.Version))
	if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to start server")
	}
	return nil
}

// Shutdown drains in-flight requests and releases external connections.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	if err := s.Index.Close(); err != nil {
		slog.Error("failed to close vector index client", slog.String("error", err.Error()))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", slog.String("error", err.Error()))
	}
	slog.Info("server stopped")
}

// healthz reports liveness plus the indexed vector count, the same
// statistic the index exposes for its collection.
func (s *Server) healthz(c echo.Context) error {
	payload := map[string]any{"status": "ok"}
	count, err := s.Index.Count(c.Request().Context())
	if err != nil {
		slog.Warn("failed to read index count", slog.String("error", err.Error()))
	} else {
		payload["indexed_vectors"] = count
	}
	return c.JSON(http.StatusOK, payload)
}
