// Package token issues and verifies the login tokens handed out by the dev story service.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	DefaultIssuer = "story-board"
	DefaultExpiry = 30 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are the verified contents of a login token.
type Claims struct {
	Subject   string    // Username the token was issued to
	ID        string    // Unique token ID for revocation
	IssuedAt  time.Time // Issued At: the time at which the token was issued
	ExpiresAt time.Time // Expiry: when the token will expire
}

type Manager struct {
	signer      Signer
	issuer      string
	expiry      time.Duration
	revocations Revocations
	nowFunc     func() time.Time
}

type ManagerOption func(*Manager)

func WithExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.expiry = expiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithRevocations(revocations Revocations) ManagerOption {
	return func(m *Manager) {
		m.revocations = revocations
	}
}

func New(signer Signer, options ...ManagerOption) (*Manager, error) {
	if signer == nil {
		return nil, errors.New("[token.New] signer is required")
	}
	m := &Manager{
		signer:      signer,
		issuer:      DefaultIssuer,
		revocations: NewMemoryRevocations(),
		nowFunc:     time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.expiry <= 0 {
		m.expiry = DefaultExpiry
	}
	return m, nil
}

// Issue creates a signed login token for username.
func (m *Manager) Issue(username string) (string, error) {
	if username == "" {
		return "", errors.New("[Manager.Issue] username is required")
	}
	now := m.nowFunc()
	claims := jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		ID:        uuid.New().String(),
	}
	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.Issue] Sign")
	}
	return signed, nil
}

// Verify checks the signature, issuer, expiry and revocation status of raw.
func (m *Manager) Verify(raw string) (*Claims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, m.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if claims.Subject == "" || claims.ID == "" || claims.IssuedAt == nil {
		return nil, errors.Wrap(ErrInvalidToken, "missing claims")
	}
	if m.revocations.Revoked(claims.ID) {
		return nil, errors.Wrap(ErrInvalidToken, "revoked")
	}
	return &Claims{
		Subject:   claims.Subject,
		ID:        claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke rejects the token from now until it would have expired anyway.
func (m *Manager) Revoke(claims *Claims) error {
	if claims == nil {
		return nil
	}
	m.revocations.Prune(m.nowFunc())
	return errors.Wrap(m.revocations.Revoke(claims.ID, claims.ExpiresAt), "[Manager.Revoke] Revoke")
}
