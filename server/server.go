// Package server is a development story service. It serves the JSON wire format the client's
// httpgateway speaks, on top of board.Service.
package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-story-client/board"
	"github.com/jrsteele09/go-story-client/internal/config"
	"github.com/jrsteele09/go-story-client/token"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config
	board  *board.Service
}

// New creates a server backed by repos, issuing JWT login tokens signed with the configured secret.
func New(c config.Config, repos board.Repos) (*Server, error) {
	tokens, err := token.New(token.NewHMACSigner(c.GetTokenSecret()),
		token.WithExpiry(c.GetTokenExpiry()),
		token.WithRevocations(token.NewMemoryRevocations()),
	)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create token manager: %w", err)
	}
	service, err := board.NewService(repos, tokens)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create story service: %w", err)
	}
	return NewWithService(c, service), nil
}

// NewWithService creates a server around an existing service.
func NewWithService(c config.Config, service *board.Service) *Server {
	s := &Server{
		env:    c.GetEnv(),
		mux:    http.NewServeMux(),
		config: c,
		board:  service,
	}
	s.initRoutes()
	s.logRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colouredMethod(method), path)
}

func colouredMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}
