// Package httpgateway talks to the story service over HTTP/JSON.
package httpgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-story-client/gateway"
	apperrors "github.com/jrsteele09/go-story-client/internal/errors"
	"github.com/jrsteele09/go-story-client/sessions"
	"github.com/jrsteele09/go-story-client/stories"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	DefaultTimeout = 10 * time.Second

	contentTypeJSON = "application/json; charset=utf-8"
)

var _ gateway.Gateway = (*Gateway)(nil)

type Gateway struct {
	baseURL   string
	timeout   time.Duration
	transport http.RoundTripper
}

type Option func(*Gateway)

func WithTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		if timeout > 0 {
			g.timeout = timeout
		}
	}
}

// WithTransport replaces the underlying round tripper (http.DefaultTransport by default).
func WithTransport(rt http.RoundTripper) Option {
	return func(g *Gateway) {
		g.transport = rt
	}
}

func New(baseURL string, options ...Option) (*Gateway, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errors.Errorf("[httpgateway.New] invalid server url %q", baseURL)
	}
	g := &Gateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		timeout:   DefaultTimeout,
		transport: http.DefaultTransport,
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

func (g *Gateway) Login(ctx context.Context, username, password string) (*sessions.Session, error) {
	var resp gateway.AuthResponse
	req := gateway.CredentialsRequest{User: gateway.Credentials{Username: username, Password: password}}
	if err := g.do(ctx, gateway.OpLogin, "", http.MethodPost, "/login", req, &resp); err != nil {
		return nil, err
	}
	return resp.User.Session(resp.Token), nil
}

func (g *Gateway) Signup(ctx context.Context, username, password, name string) (*sessions.Session, error) {
	var resp gateway.AuthResponse
	req := gateway.CredentialsRequest{User: gateway.Credentials{Username: username, Password: password, Name: name}}
	if err := g.do(ctx, gateway.OpSignup, "", http.MethodPost, "/signup", req, &resp); err != nil {
		return nil, err
	}
	return resp.User.Session(resp.Token), nil
}

// RestoreSession returns nil, nil when the service no longer accepts the credentials.
func (g *Gateway) RestoreSession(ctx context.Context, token, username string) (*sessions.Session, error) {
	if token == "" || username == "" {
		return nil, nil
	}
	var resp gateway.UserResponse
	err := g.do(ctx, gateway.OpRestoreSession, token, http.MethodGet, userPath(username), nil, &resp)
	if errors.Is(err, gateway.ErrAuth) || errors.Is(err, gateway.ErrNotFound) {
		log.Debug().Str("username", username).Err(err).Msg("stored session rejected")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.User.Session(token), nil
}

func (g *Gateway) UpdateProfile(ctx context.Context, token, username string, fields sessions.ProfileFields) (*sessions.Session, error) {
	if err := gateway.RequireToken(gateway.OpUpdateProfile, token); err != nil {
		return nil, err
	}
	var resp gateway.UserResponse
	if err := g.do(ctx, gateway.OpUpdateProfile, token, http.MethodPatch, userPath(username), gateway.ProfileRequest{User: fields}, &resp); err != nil {
		return nil, err
	}
	return resp.User.Session(token), nil
}

func (g *Gateway) DeleteAccount(ctx context.Context, token, username string) (*sessions.Session, error) {
	if err := gateway.RequireToken(gateway.OpDeleteAccount, token); err != nil {
		return nil, err
	}
	var resp gateway.UserResponse
	if err := g.do(ctx, gateway.OpDeleteAccount, token, http.MethodDelete, userPath(username), nil, &resp); err != nil {
		return nil, err
	}
	return resp.User.Session(token), nil
}

func (g *Gateway) FetchAllStories(ctx context.Context) (stories.Collection, error) {
	var resp gateway.StoriesResponse
	if err := g.do(ctx, gateway.OpFetchAllStories, "", http.MethodGet, "/stories", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Stories == nil {
		return stories.Collection{}, nil
	}
	return resp.Stories, nil
}

func (g *Gateway) AddStory(ctx context.Context, token string, fields stories.Fields) (stories.Story, error) {
	if err := gateway.RequireToken(gateway.OpAddStory, token); err != nil {
		return stories.Story{}, err
	}
	var resp gateway.StoryResponse
	if err := g.do(ctx, gateway.OpAddStory, token, http.MethodPost, "/stories", gateway.StoryRequest{Story: fields}, &resp); err != nil {
		return stories.Story{}, err
	}
	return resp.Story, nil
}

func (g *Gateway) UpdateStory(ctx context.Context, token, storyID string, fields stories.Fields) (stories.Story, error) {
	if err := gateway.RequireToken(gateway.OpUpdateStory, token); err != nil {
		return stories.Story{}, err
	}
	var resp gateway.StoryResponse
	if err := g.do(ctx, gateway.OpUpdateStory, token, http.MethodPatch, storyPath(storyID), gateway.StoryRequest{Story: fields}, &resp); err != nil {
		return stories.Story{}, err
	}
	return resp.Story, nil
}

func (g *Gateway) DeleteStory(ctx context.Context, token, storyID string) error {
	if err := gateway.RequireToken(gateway.OpDeleteStory, token); err != nil {
		return err
	}
	return g.do(ctx, gateway.OpDeleteStory, token, http.MethodDelete, storyPath(storyID), nil, nil)
}

func (g *Gateway) AddFavorite(ctx context.Context, token, username, storyID string) (*sessions.Session, error) {
	return g.favorite(ctx, gateway.OpAddFavorite, http.MethodPost, token, username, storyID)
}

func (g *Gateway) RemoveFavorite(ctx context.Context, token, username, storyID string) (*sessions.Session, error) {
	return g.favorite(ctx, gateway.OpRemoveFavorite, http.MethodDelete, token, username, storyID)
}

func (g *Gateway) favorite(ctx context.Context, op, method, token, username, storyID string) (*sessions.Session, error) {
	if err := gateway.RequireToken(op, token); err != nil {
		return nil, err
	}
	var resp gateway.UserResponse
	path := userPath(username) + "/favorites/" + url.PathEscape(storyID)
	if err := g.do(ctx, op, token, method, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.User.Session(token), nil
}

// client returns an http.Client that sends token as a bearer credential. An empty token sends none.
func (g *Gateway) client(token string) *http.Client {
	if token == "" {
		return &http.Client{Timeout: g.timeout, Transport: g.transport}
	}
	return &http.Client{
		Timeout: g.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   g.transport,
		},
	}
}

func (g *Gateway) do(ctx context.Context, op, token, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return gateway.NewError(op, gateway.ErrTransport, 0, err.Error())
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return gateway.NewError(op, gateway.ErrTransport, 0, err.Error())
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	resp, err := g.client(token).Do(req)
	if err != nil {
		log.Warn().Str("op", op).Err(err).Msg("story service unreachable")
		return gateway.NewError(op, gateway.ErrTransport, 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return gateway.NewError(op, gateway.ErrTransport, resp.StatusCode, "malformed response: "+err.Error())
	}
	return nil
}

func decodeError(op string, resp *http.Response) error {
	var body gateway.ErrorResponse
	message := http.StatusText(resp.StatusCode)
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil {
		if json.Unmarshal(data, &body) == nil && body.Error.Message != "" {
			message = body.Error.Message
		}
	}
	kind := gateway.KindForStatus(resp.StatusCode)
	if apperrors.Is(kind, gateway.ErrTransport) {
		log.Warn().Str("op", op).Int("status", resp.StatusCode).Str("message", message).Msg("story service error")
	}
	return gateway.NewError(op, kind, resp.StatusCode, message)
}

func userPath(username string) string {
	return "/users/" + url.PathEscape(username)
}

func storyPath(storyID string) string {
	return "/stories/" + url.PathEscape(storyID)
}
