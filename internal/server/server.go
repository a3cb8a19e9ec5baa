// internal/server/server.go
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"cohost-dashboard/internal/common/logger"
	"cohost-dashboard/internal/dashboard"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.html
var templateFS embed.FS

const pageTemplate = "dashboard.html"

// Pinger reports whether the session store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves the seller dashboard and its operational endpoints.
type Server struct {
	config     *Config
	controller *dashboard.Controller
	store      Pinger
	logger     logger.Logger
	router     *gin.Engine
	http       *http.Server
}

func New(cfg *Config, controller *dashboard.Controller, store Pinger, log logger.Logger) (*Server, error) {
	const op = "server.New"

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("%s: parse templates: %w", op, err)
	}

	s := &Server{
		config:     cfg,
		controller: controller,
		store:      store,
		logger:     log.With(map[string]interface{}{"component": "server"}),
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger), corsMiddleware(cfg.CORSOrigins))
	router.SetHTMLTemplate(tmpl)
	s.routes(router)
	s.router = router

	s.http = &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	page := r.Group("/", sessionCookie(s.config.CookieName, s.config.CookieSecure))
	page.GET("/", s.index)
	page.POST("/product", s.updateProduct)
	page.POST("/question", s.updateQuestion)
	page.POST("/classify", s.classify)
	page.POST("/generate", s.generate)
	page.POST("/reset", s.reset)
	page.GET("/api/state", s.state)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run blocks serving HTTP until Stop is called.
func (s *Server) Run() error {
	const op = "server.Run"

	s.logger.Info("starting HTTP server", map[string]interface{}{
		"address": s.http.Addr,
		"mode":    gin.Mode(),
	})

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Stop drains open connections until ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	const op = "server.Stop"

	s.logger.Info("stopping HTTP server", nil)
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
