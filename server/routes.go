package server

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() {
	// ACCOUNTS
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteSignup, ChainMiddleware(s.SignupHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteUser, ChainMiddleware(s.GetUserHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("PATCH "+RouteUser, ChainMiddleware(s.UpdateUserHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("DELETE "+RouteUser, ChainMiddleware(s.DeleteUserHandler(), s.APIMiddleware(s.RequireAuth())...))

	// STORIES
	s.RegisterRouteHandler("GET "+RouteStories, ChainMiddleware(s.ListStoriesHandler(), s.APIMiddleware(s.CompressionMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteStories, ChainMiddleware(s.AddStoryHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("PATCH "+RouteStory, ChainMiddleware(s.UpdateStoryHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("DELETE "+RouteStory, ChainMiddleware(s.DeleteStoryHandler(), s.APIMiddleware(s.RequireAuth())...))

	// FAVORITES
	s.RegisterRouteHandler("POST "+RouteFavorite, ChainMiddleware(s.AddFavoriteHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("DELETE "+RouteFavorite, ChainMiddleware(s.RemoveFavoriteHandler(), s.APIMiddleware(s.RequireAuth())...))

	// CORS preflight for every route; unknown paths fall through to a JSON 404
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(s.notFoundHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("/", ChainMiddleware(s.notFoundHandler(), s.APIMiddleware()...))
}

func (s *Server) notFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no route for "+r.Method+" "+r.URL.Path)
	}
}

func logError(method, path, error string) {
	log.Error().Msgf("[%-19s] %s %s", colouredMethod(method), path, Red+error+ResetColor)
}
