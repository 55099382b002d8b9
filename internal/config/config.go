package config

type Config interface {
	EnvConfig
	ClientConfig
	ServerConfig
	TokenConfig
	CorsConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Client
	Server
	Token
	Cors
}

func New() Config {
	return mainConfig{}
}
