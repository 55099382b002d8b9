// Package board holds the story service's business rules: accounts, stories and favorites. The dev
// HTTP server and the in-memory gateway both sit on top of it.
package board

import (
	"strings"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-story-client/internal/errors"
	"github.com/jrsteele09/go-story-client/sessions"
	"github.com/jrsteele09/go-story-client/stories"
	"github.com/jrsteele09/go-story-client/token"
	"github.com/jrsteele09/go-story-client/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	// ErrUsernameTaken is reported as a conflict
	ErrUsernameTaken = errors.Wrap(apperrors.ErrAuth, "username already taken")

	// ErrForbidden is reported when a caller acts on another user's account
	ErrForbidden = errors.Wrap(apperrors.ErrAuth, "not allowed")
)

// Tokens issues and checks login tokens.
type Tokens interface {
	Issue(username string) (string, error)
	Verify(raw string) (*token.Claims, error)
	Revoke(claims *token.Claims) error
}

var _ Tokens = (*token.Manager)(nil)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users   users.UserRepo // Repository for user data
	Stories stories.Repo   // Repository for story data
}

// Account is a user together with the stories the service reports alongside it.
type Account struct {
	Token     string
	User      *users.User
	Stories   stories.Collection // Authored by the user, most recent first
	Favorites stories.Collection // Favorited by the user, in the order they were added
}

// Session converts the account into the client side snapshot.
func (a *Account) Session() *sessions.Session {
	return &sessions.Session{
		Token:      a.Token,
		Username:   a.User.Username,
		Name:       a.User.Name,
		CreatedAt:  a.User.CreatedAt,
		OwnStories: a.Stories.Clone(),
		Favorites:  a.Favorites.Clone(),
	}
}

type Service struct {
	repos   Repos
	tokens  Tokens
	nowTime func() time.Time

	// serialises read-modify-write cycles on users and stories
	lock sync.Mutex
}

type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func NewService(repos Repos, tokens Tokens, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Stories == nil {
		return nil, errors.New("[NewService] Stories repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewService] token issuer is required")
	}

	s := &Service{
		repos:   repos,
		tokens:  tokens,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

func (s *Service) Signup(username, password, name string) (*Account, error) {
	user, err := s.CreateUser(username, password, name)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// CreateUser registers an account without logging into it.
func (s *Service) CreateUser(username, password, name string) (*users.User, error) {
	username = users.NormalizeUsername(username)
	name = strings.TrimSpace(name)
	if err := users.ValidateUsername(username); err != nil {
		return nil, apperrors.Validation("username", err.Error())
	}
	if err := users.ValidatePasswordStrength(password); err != nil {
		return nil, apperrors.Validation("password", err.Error())
	}
	if name == "" {
		return nil, apperrors.Validation("name", "is required")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, err := s.repos.Users.GetByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	}
	hash, err := users.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.CreateUser] HashPassword")
	}
	now := s.nowTime()
	user := &users.User{
		Username:     username,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
		Favorites:    []string{},
	}
	if err := s.repos.Users.Upsert(user); err != nil {
		return nil, errors.Wrap(err, "[Service.CreateUser] Upsert")
	}
	log.Info().Str("username", username).Msg("account created")
	return user, nil
}

func (s *Service) Login(username, password string) (*Account, error) {
	user, err := s.repos.Users.GetByUsername(users.NormalizeUsername(username))
	if err != nil || !user.CheckPassword(password) {
		return nil, errors.Wrap(apperrors.ErrAuth, "invalid username or password")
	}
	return s.issue(user)
}

// Authenticate verifies a login token and returns the user it belongs to. Tokens issued before the
// account was created (an earlier account with the same username) are rejected.
func (s *Service) Authenticate(raw string) (*users.User, *token.Claims, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, nil, errors.Wrap(apperrors.ErrAuth, err.Error())
	}
	user, err := s.repos.Users.GetByUsername(claims.Subject)
	if err != nil {
		return nil, nil, errors.Wrap(apperrors.ErrAuth, "unknown user")
	}
	if claims.IssuedAt.Before(user.CreatedAt.Truncate(time.Second)) {
		return nil, nil, errors.Wrap(apperrors.ErrAuth, "token predates account")
	}
	return user, claims, nil
}

// Account returns the user with their authored and favorited stories.
func (s *Service) Account(username string) (*Account, error) {
	user, err := s.repos.Users.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	return s.account(user)
}

func (s *Service) UpdateProfile(username string, fields sessions.ProfileFields) (*Account, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	if fields.Password != "" {
		if err := users.ValidatePasswordStrength(fields.Password); err != nil {
			return nil, apperrors.Validation("password", err.Error())
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	user, err := s.repos.Users.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	user.Name = strings.TrimSpace(fields.Name)
	if fields.Password != "" {
		if user.PasswordHash, err = users.HashPassword(fields.Password); err != nil {
			return nil, errors.Wrap(err, "[Service.UpdateProfile] HashPassword")
		}
	}
	user.UpdatedAt = s.nowTime()
	if err := s.repos.Users.Upsert(user); err != nil {
		return nil, errors.Wrap(err, "[Service.UpdateProfile] Upsert")
	}
	return s.account(user)
}

// DeleteAccount removes the user and their stories and revokes the token used for the request. The
// returned account is the last state before deletion.
func (s *Service) DeleteAccount(username string, claims *token.Claims) (*Account, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	user, err := s.repos.Users.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	account, err := s.account(user)
	if err != nil {
		return nil, err
	}
	for _, story := range account.Stories {
		if err := s.deleteStory(story.ID); err != nil {
			return nil, errors.Wrapf(err, "[Service.DeleteAccount] delete story %s", story.ID)
		}
	}
	if err := s.repos.Users.Delete(username); err != nil {
		return nil, errors.Wrap(err, "[Service.DeleteAccount] Delete")
	}
	if err := s.tokens.Revoke(claims); err != nil {
		log.Error().Err(err).Str("username", username).Msg("failed to revoke token")
	}
	log.Info().Str("username", username).Msg("account deleted")
	return account, nil
}

func (s *Service) ListStories() (stories.Collection, error) {
	return s.repos.Stories.List()
}

func (s *Service) AddStory(username string, fields stories.Fields) (stories.Story, error) {
	if err := fields.Validate(); err != nil {
		return stories.Story{}, err
	}
	fields = fields.Normalized()
	now := s.nowTime()
	story := &stories.Story{
		Title:     fields.Title,
		URL:       fields.URL,
		Author:    fields.Author,
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repos.Stories.Insert(story); err != nil {
		return stories.Story{}, errors.Wrap(err, "[Service.AddStory] Insert")
	}
	return *story, nil
}

// UpdateStory edits a story owned by username. Stories of other users are reported as not found.
func (s *Service) UpdateStory(username, storyID string, fields stories.Fields) (stories.Story, error) {
	if err := fields.Validate(); err != nil {
		return stories.Story{}, err
	}
	fields = fields.Normalized()

	s.lock.Lock()
	defer s.lock.Unlock()

	story, err := s.ownedStory(username, storyID)
	if err != nil {
		return stories.Story{}, err
	}
	story.Title, story.URL, story.Author = fields.Title, fields.URL, fields.Author
	story.UpdatedAt = s.nowTime()
	if err := s.repos.Stories.Update(story); err != nil {
		return stories.Story{}, errors.Wrap(err, "[Service.UpdateStory] Update")
	}
	return *story, nil
}

// DeleteStory removes a story owned by username and drops it from every user's favorites.
func (s *Service) DeleteStory(username, storyID string) (stories.Story, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	story, err := s.ownedStory(username, storyID)
	if err != nil {
		return stories.Story{}, err
	}
	if err := s.deleteStory(storyID); err != nil {
		return stories.Story{}, err
	}
	return *story, nil
}

func (s *Service) AddFavorite(username, storyID string) (*Account, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, err := s.repos.Stories.Get(storyID); err != nil {
		return nil, err
	}
	user, err := s.repos.Users.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Users.SetFavorites(username, user.WithFavorite(storyID)); err != nil {
		return nil, errors.Wrap(err, "[Service.AddFavorite] SetFavorites")
	}
	return s.Account(username)
}

// RemoveFavorite is idempotent: removing a story that is not a favorite succeeds.
func (s *Service) RemoveFavorite(username, storyID string) (*Account, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	user, err := s.repos.Users.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Users.SetFavorites(username, user.WithoutFavorite(storyID)); err != nil {
		return nil, errors.Wrap(err, "[Service.RemoveFavorite] SetFavorites")
	}
	return s.Account(username)
}

func (s *Service) issue(user *users.User) (*Account, error) {
	raw, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.issue] Issue")
	}
	account, err := s.account(user)
	if err != nil {
		return nil, err
	}
	account.Token = raw
	return account, nil
}

func (s *Service) account(user *users.User) (*Account, error) {
	all, err := s.repos.Stories.List()
	if err != nil {
		return nil, errors.Wrap(err, "[Service.account] List")
	}
	favorites := make(stories.Collection, 0, len(user.Favorites))
	for _, id := range user.Favorites {
		if story, ok := all.Find(id); ok {
			favorites = append(favorites, story)
		}
	}
	return &Account{
		User:      user,
		Stories:   all.OwnedBy(user.Username),
		Favorites: favorites,
	}, nil
}

func (s *Service) ownedStory(username, storyID string) (*stories.Story, error) {
	story, err := s.repos.Stories.Get(storyID)
	if err != nil {
		return nil, err
	}
	if story.Username != username {
		return nil, apperrors.ErrNotFound
	}
	return story, nil
}

func (s *Service) deleteStory(storyID string) error {
	if err := s.repos.Stories.Delete(storyID); err != nil {
		return err
	}
	all, err := s.repos.Users.List()
	if err != nil {
		return errors.Wrap(err, "[Service.deleteStory] List users")
	}
	for _, user := range all {
		if !user.HasFavorite(storyID) {
			continue
		}
		if err := s.repos.Users.SetFavorites(user.Username, user.WithoutFavorite(storyID)); err != nil {
			return errors.Wrap(err, "[Service.deleteStory] SetFavorites")
		}
	}
	return nil
}
