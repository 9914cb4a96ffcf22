// Package config loads the blog's TOML configuration. Defaults are applied
// first, then the file, then environment overrides; command line flags are
// applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	"blog/app/mail"
	"blog/app/repositories/mongo"
	"blog/app/repositories/postgres"
)

const (
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	LogLevel string         `toml:"logLevel"`
	HTTP     HTTPConfig     `toml:"http"`
	Blog     BlogConfig     `toml:"blog"`
	Storage  StorageConfig  `toml:"storage"`
	Comments CommentsConfig `toml:"comments"`
	Mail     mail.Config    `toml:"mail"`
}

type HTTPConfig struct {
	Addr            string `toml:"addr"`
	BaseURL         string `toml:"baseURL"` // scheme and host used in shared links
	ShutdownTimeout string `toml:"shutdownTimeout"`
}

type BlogConfig struct {
	PostsPerPage    int     `toml:"postsPerPage"`
	SimilarLimit    int     `toml:"similarLimit"`
	SearchThreshold float64 `toml:"searchThreshold"`
	TimeZone        string  `toml:"timeZone"`
}

type StorageConfig struct {
	Driver     string          `toml:"driver"`
	BadgerPath string          `toml:"badgerPath"` // empty means in-memory
	Postgres   postgres.Config `toml:"postgres"`
}

// CommentsConfig selects a separate comment store. An empty driver keeps
// comments in the post store.
type CommentsConfig struct {
	Driver string       `toml:"driver"`
	Mongo  mongo.Config `toml:"mongo"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			BaseURL:         "http://localhost:8080",
			ShutdownTimeout: "5s",
		},
		Blog: BlogConfig{
			PostsPerPage:    3,
			SimilarLimit:    4,
			SearchThreshold: 0.1,
			TimeZone:        "UTC",
		},
		Storage: StorageConfig{
			Driver:     DriverBadger,
			BadgerPath: "data/badger",
		},
		Mail: mail.Config{
			Driver:  "log",
			From:    mail.DefaultFrom,
			Timeout: "10s",
		},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error when path is empty.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			log.Warnf("[config] unknown keys in %s: %v", path, undecoded)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides settings that are usually injected by the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("BLOG_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		c.Storage.Postgres.Password = v
	}
	if v := os.Getenv("MONGO_PASS"); v != "" {
		c.Comments.Mongo.Pass = v
	}
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case DriverBadger:
	case DriverPostgres:
		if !c.Storage.Postgres.IsValid() {
			errs = append(errs, errors.New("storage.postgres: user, password, host, port and dbname are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver))
	}

	switch c.Comments.Driver {
	case "":
	case DriverMongo:
		if !c.Comments.Mongo.IsValid() {
			errs = append(errs, errors.New("comments.mongo: host, port and dbname are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("comments.driver: unknown driver %q", c.Comments.Driver))
	}

	if c.Blog.PostsPerPage < 1 {
		errs = append(errs, errors.New("blog.postsPerPage must be positive"))
	}
	if c.Blog.SimilarLimit < 1 {
		errs = append(errs, errors.New("blog.similarLimit must be positive"))
	}
	if c.Blog.SearchThreshold <= 0 || c.Blog.SearchThreshold >= 1 {
		errs = append(errs, errors.New("blog.searchThreshold must be in (0, 1)"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("blog.timeZone: %w", err))
	}
	if _, err := c.ShutdownTimeout(); err != nil {
		errs = append(errs, fmt.Errorf("http.shutdownTimeout: %w", err))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if err := c.Mail.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Location is the time zone publish dates are shown and matched in.
func (c *Config) Location() (*time.Location, error) {
	if c.Blog.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Blog.TimeZone)
}

func (c *Config) ShutdownTimeout() (time.Duration, error) {
	if c.HTTP.ShutdownTimeout == "" {
		return 5 * time.Second, nil
	}
	return time.ParseDuration(c.HTTP.ShutdownTimeout)
}

// ParseLevel maps the configured level name onto a logrus level.
func ParseLevel(level string) (log.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return log.InfoLevel, nil
	case "debug":
		return log.DebugLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	}
	return log.InfoLevel, fmt.Errorf("logLevel: unknown level %q", level)
}

func mask(s string) string {
	return strings.Repeat("*", len([]rune(s)))
}

// String renders the configuration with secrets masked.
func (c Config) String() string {
	c.Storage.Postgres.Password = mask(c.Storage.Postgres.Password)
	c.Comments.Mongo.Pass = mask(c.Comments.Mongo.Pass)
	return fmt.Sprintf("%+v", struct {
		LogLevel string
		HTTP     HTTPConfig
		Blog     BlogConfig
		Storage  StorageConfig
		Comments CommentsConfig
		Mail     mail.Config
	}{c.LogLevel, c.HTTP, c.Blog, c.Storage, c.Comments, c.Mail})
}
