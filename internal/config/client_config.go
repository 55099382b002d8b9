package config

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	serverURLVar      = "STORY_SERVER_URL"
	dataDirVar        = "STORY_DATA_DIR"
	storeVar          = "STORY_STORE"
	requestTimeoutVar = "STORY_REQUEST_TIMEOUT"
	redisAddrVar      = "REDIS_ADDR"
	redisPasswordVar  = "REDIS_PASSWORD"
	redisPrefixVar    = "REDIS_PREFIX"
)

// Credential store backends
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type ClientConfig interface {
	GetServerURL() string
	GetDataFolder() string
	GetCredentialStore() string
	GetRequestTimeout() time.Duration
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisPrefix() string
}

type Client struct{}

var _ ClientConfig = Client{}

// GetServerURL returns the base URL of the story service, without a trailing slash
func (Client) GetServerURL() string {
	return strings.TrimRight(GetEnv(serverURLVar, "http://localhost:8080"), "/")
}

func (Client) GetDataFolder() string {
	return GetEnv(dataDirVar, filepath.Join(".", "data"))
}

func (Client) GetCredentialStore() string {
	return strings.ToLower(GetEnv(storeVar, StoreSQLite))
}

func (Client) GetRequestTimeout() time.Duration {
	return GetDuration(requestTimeoutVar, 10*time.Second)
}

func (Client) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "localhost:6379")
}

func (Client) GetRedisPassword() string {
	return GetEnv(redisPasswordVar, "")
}

func (Client) GetRedisPrefix() string {
	return GetEnv(redisPrefixVar, "storyclient:")
}
