package http

import (
	"context"
	"errors"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reusedev/sketch-relay/config"
	"github.com/reusedev/sketch-relay/internal/modules/logs"
	"github.com/reusedev/sketch-relay/internal/service/http/handler"
	"github.com/reusedev/sketch-relay/internal/service/http/middleware"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	srv *nethttp.Server
}

func NewServer(cfg *config.Config, h *handler.Handler) *Server {
	return &Server{
		srv: &nethttp.Server{
			Addr:              cfg.Server.Addr,
			Handler:           NewEngine(cfg, h),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func NewEngine(cfg *config.Config, h *handler.Handler) *gin.Engine {
	e := gin.New()
	e.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20
	initRouter(e, cfg, h)
	return e
}

func initRouter(e *gin.Engine, cfg *config.Config, h *handler.Handler) {
	e.Use(middleware.RequestLogger(), gin.Recovery(), middleware.CORS("/api/", cfg.AllowedOrigins()))
	api := e.Group("/api")
	{
		api.POST("/generate", middleware.BodyLimit(cfg.Server.MaxUploadMB<<20), h.Generate)
		api.GET("/health", h.Health)
	}
}

// Serve blocks until ctx is done or the listener fails. In-flight requests get
// shutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logs.Logger.Info().Str("addr", s.srv.Addr).Msg("http server listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logs.Logger.Info().Msg("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, nethttp.ErrServerClosed) {
		return err
	}
	return nil
}
