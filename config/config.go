// Package config reads the cbk settings from the environment, and from a
// .env file when there is one.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Environment variables.
const (
	EnvStore         = "CBK_STORE"
	EnvStorePath     = "CBK_STORE_PATH"
	EnvPostgresDSN   = "CBK_POSTGRES_DSN"
	EnvRedisAddr     = "CBK_REDIS_ADDR"
	EnvRedisPassword = "CBK_REDIS_PASSWORD"
	EnvRedisDB       = "CBK_REDIS_DB"
	EnvRedisPrefix   = "CBK_REDIS_PREFIX"
	EnvCompany       = "CBK_COMPANY"
	EnvLogLevel      = "CBK_LOG_LEVEL"
	EnvHTML          = "CBK_HTML"
	EnvWidth         = "CBK_WIDTH"
)

// Config holds the settings of the cbk tool.
type Config struct {
	Store         string // dir, sqlite, postgres or redis
	StorePath     string // directory or sqlite file
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	Company       string // printed on invoices
	LogLevel      log.Level
	HTML          bool // print reports as HTML instead of styled markdown
	Width         int  // terminal width
}

// LoadEnv loads variables from the .env files, or ./.env if none is given.
// Variables already set in the environment are kept.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
		log.Warnf("ignoring %s=%q: not an integer", key, val)
	}
	return defaultVal
}

// GetBoolEnv returns a boolean environment variable or a default value.
func GetBoolEnv(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
		log.Warnf("ignoring %s=%q: not a boolean", key, val)
	}
	return defaultVal
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	level, err := log.ParseLevel(GetEnv(EnvLogLevel, "warning"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
	}
	c := Config{
		Store:         GetEnv(EnvStore, "dir"),
		StorePath:     GetEnv(EnvStorePath, ".coursebooks"),
		PostgresDSN:   GetEnv(EnvPostgresDSN, ""),
		RedisAddr:     GetEnv(EnvRedisAddr, "localhost:6379"),
		RedisPassword: GetEnv(EnvRedisPassword, ""),
		RedisDB:       GetIntEnv(EnvRedisDB, 0),
		RedisPrefix:   GetEnv(EnvRedisPrefix, "coursebooks:"),
		Company:       GetEnv(EnvCompany, "Training Company"),
		LogLevel:      level,
		HTML:          GetBoolEnv(EnvHTML, false),
		Width:         GetIntEnv(EnvWidth, 100),
	}
	return c, nil
}

// SetupLogging sends the log to w with the configured level.
func (c Config) SetupLogging(w io.Writer) {
	log.SetOutput(w)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	log.SetLevel(c.LogLevel)
}
