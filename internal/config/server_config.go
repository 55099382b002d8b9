package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	portEnvVar     = "PORT"
	tokenSecretVar = "TOKEN_SECRET"
	tokenExpiryVar = "TOKEN_EXPIRY"
)

type ServerConfig interface {
	GetPort() string
}

type TokenConfig interface {
	GetTokenSecret() string
	GetTokenExpiry() time.Duration
}

type Server struct{}

var _ ServerConfig = Server{}

func (Server) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

type Token struct{}

var _ TokenConfig = Token{}

// GetTokenSecret returns the HMAC secret for login tokens. The default is only fit for local development.
func (Token) GetTokenSecret() string {
	return GetEnv(tokenSecretVar, "dev-secret-change-me")
}

func (Token) GetTokenExpiry() time.Duration {
	return GetDuration(tokenExpiryVar, 30*24*time.Hour)
}
