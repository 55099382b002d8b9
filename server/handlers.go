package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jrsteele09/go-story-client/board"
	"github.com/jrsteele09/go-story-client/gateway"
	apperrors "github.com/jrsteele09/go-story-client/internal/errors"
	"github.com/jrsteele09/go-story-client/stories"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	maxBodyBytes    = 1 << 20
)

// LoginHandler exchanges a username and password for a token and the user's profile
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gateway.CredentialsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.respondError(w, r, err)
			return
		}
		account, err := s.board.Login(req.User.Username, req.User.Password)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, gateway.AuthResponse{Token: account.Token, User: userPayload(account)})
	}
}

// SignupHandler creates an account and logs into it
func (s *Server) SignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gateway.CredentialsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.respondError(w, r, err)
			return
		}
		account, err := s.board.Signup(req.User.Username, req.User.Password, req.User.Name)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, gateway.AuthResponse{Token: account.Token, User: userPayload(account)})
	}
}

func (s *Server) GetUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := s.requireSelf(r)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		account, err := s.board.Account(username)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, gateway.UserResponse{User: userPayload(account)})
	}
}

func (s *Server) UpdateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := s.requireSelf(r)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		var req gateway.ProfileRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.respondError(w, r, err)
			return
		}
		account, err := s.board.UpdateProfile(username, req.User)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, gateway.UserResponse{User: userPayload(account)})
	}
}

// DeleteUserHandler deletes the account along with its stories and revokes the presented token
func (s *Server) DeleteUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := s.requireSelf(r)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		claims, _ := ClaimsFromContext(r.Context())
		account, err := s.board.DeleteAccount(username, claims)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, gateway.UserResponse{Message: "account deleted", User: userPayload(account)})
	}
}

func (s *Server) ListStoriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := s.board.ListStories()
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if all == nil {
			all = stories.Collection{}
		}
		writeJSON(w, http.StatusOK, gateway.StoriesResponse{Stories: all})
	}
}

func (s *Server) AddStoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		var req gateway.StoryRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.respondError(w, r, err)
			return
		}
		story, err := s.board.AddStory(user.Username, req.Story)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, gateway.StoryResponse{Story: story})
	}
}

func (s *Server) UpdateStoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		var req gateway.StoryRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.respondError(w, r, err)
			return
		}
		story, err := s.board.UpdateStory(user.Username, r.PathValue("storyId"), req.Story)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, gateway.StoryResponse{Story: story})
	}
}

func (s *Server) DeleteStoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		story, err := s.board.DeleteStory(user.Username, r.PathValue("storyId"))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, gateway.StoryResponse{Message: "story deleted", Story: story})
	}
}

func (s *Server) AddFavoriteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := s.requireSelf(r)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		account, err := s.board.AddFavorite(username, r.PathValue("storyId"))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, gateway.UserResponse{Message: "favorite added", User: userPayload(account)})
	}
}

func (s *Server) RemoveFavoriteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := s.requireSelf(r)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		account, err := s.board.RemoveFavorite(username, r.PathValue("storyId"))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, gateway.UserResponse{Message: "favorite removed", User: userPayload(account)})
	}
}

// requireSelf returns the {username} path value when it names the authenticated user.
func (s *Server) requireSelf(r *http.Request) (string, error) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		return "", apperrors.ErrAuth
	}
	if username := r.PathValue("username"); username != user.Username {
		return "", board.ErrForbidden
	}
	return user.Username, nil
}

func userPayload(account *board.Account) gateway.UserPayload {
	return gateway.UserPayload{
		Username:  account.User.Username,
		Name:      account.User.Name,
		CreatedAt: account.User.CreatedAt,
		UpdatedAt: account.User.UpdatedAt,
		Stories:   nonNil(account.Stories),
		Favorites: nonNil(account.Favorites),
	}
}

func nonNil(c stories.Collection) stories.Collection {
	if c == nil {
		return stories.Collection{}
	}
	return c
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return apperrors.Validation("body", "must be a JSON document: "+err.Error())
	}
	return nil
}

// statusFor maps a service error to the HTTP status the client's gateway understands.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, board.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, board.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrAuth), errors.Is(err, apperrors.ErrMissingToken):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		message = "internal server error"
	}
	writeError(w, status, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, gateway.ErrorResponse{Error: gateway.ErrorBody{
		Status:  status,
		Title:   http.StatusText(status),
		Message: message,
	}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
