package server

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"fabula/pkg/story"
)

// Server is the thin HTTP caller around the orchestration core. It never
// presents a stage failure sentinel as a successful result.
type Server struct {
	Echo      *echo.Echo
	Describer *story.Describer
	Composer  *story.Composer
	Ctx       context.Context
}

func NewServer(ctx context.Context, describer *story.Describer, composer *story.Composer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	s := &Server{
		Echo:      e,
		Describer: describer,
		Composer:  composer,
		Ctx:       ctx,
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)

	api := s.Echo.Group("/api")
	api.POST("/describe", s.handlePostDescribe) // image -> per-person descriptions
	api.POST("/story", s.handlePostStory)       // descriptions + names + genre + length -> story
	api.POST("/generate", s.handlePostGenerate) // one-shot: image + names + genre + length -> story
}

func (s *Server) Start(addr string) error {
	log.Info("server listening", "addr", addr)
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("shutting down server")
	return s.Echo.Shutdown(ctx)
}
