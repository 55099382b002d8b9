// Package redisstore persists the session credentials as a single Redis hash.
package redisstore

import (
	"context"
	"time"

	"github.com/jrsteele09/go-story-client/sessions"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const DefaultPrefix = "storyclient:"

var _ sessions.Store = (*Store)(nil)

type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithPrefix namespaces the credential key.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithTTL expires the stored credentials after ttl. Zero keeps them until cleared.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

func New(client *redis.Client, options ...Option) (*Store, error) {
	if client == nil {
		return nil, errors.New("[redisstore.New] redis client is required")
	}
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Dial connects to addr and checks the connection before returning.
func Dial(ctx context.Context, addr, password string, options ...Option) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "[redisstore.Dial] ping %s", addr)
	}
	return New(client, options...)
}

func (s *Store) Key() string {
	return s.prefix + "credentials"
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Read(ctx context.Context) (*sessions.Credentials, error) {
	values, err := s.client.HGetAll(ctx, s.Key()).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Read] HGetAll")
	}

	token, hasToken := values["token"]
	username, hasUsername := values["username"]
	if !hasToken || !hasUsername {
		return nil, nil
	}
	return &sessions.Credentials{Token: token, Username: username}, nil
}

func (s *Store) Write(ctx context.Context, creds sessions.Credentials) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.Key(), "token", creds.Token, "username", creds.Username)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.Key(), s.ttl)
		}
		return nil
	})
	return errors.Wrap(err, "[Store.Write] HSet")
}

func (s *Store) Clear(ctx context.Context) error {
	return errors.Wrap(s.client.Del(ctx, s.Key()).Err(), "[Store.Clear] Del")
}
