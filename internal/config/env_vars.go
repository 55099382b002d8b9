package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	appNameVar  = "APP_NAME"
	envVar      = "ENV"
	logLevelVar = "LOG_LEVEL"

	// configFileVar names an optional YAML/TOML/JSON file whose keys override the defaults.
	// Environment variables win over the file.
	configFileVar = "STORY_CONFIG"
)

var v = newViper()

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}

// LoadFile merges the given config file into the resolved configuration. An empty path falls
// back to $STORY_CONFIG; when neither is set this is a no-op.
func LoadFile(path string) error {
	if path == "" {
		path = v.GetString(configFileVar)
	}
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	return v.MergeInConfig()
}

// Set overrides a key for the lifetime of the process (flags, tests).
func Set(key string, value any) {
	v.Set(key, value)
}

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Story Board")
}

func (EnvVars) GetEnv() string {
	return strings.ToUpper(GetEnv(envVar, "DEV"))
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func GetEnv(key, defaultValue string) string {
	value := v.GetString(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetDuration(key string, defaultValue time.Duration) time.Duration {
	if v.GetString(key) == "" {
		return defaultValue
	}
	d := v.GetDuration(key)
	if d <= 0 {
		return defaultValue
	}
	return d
}
