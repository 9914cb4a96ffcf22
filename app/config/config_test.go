package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.Blog.PostsPerPage)
	assert.Equal(t, 4, cfg.Blog.SimilarLimit)
	assert.Equal(t, 0.1, cfg.Blog.SearchThreshold)
	assert.Equal(t, "admin@myblog.com", cfg.Mail.From)
	assert.Equal(t, DriverBadger, cfg.Storage.Driver)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
logLevel = "debug"

[http]
addr = ":9090"

[blog]
postsPerPage = 5
timeZone = "Europe/Berlin"

[storage]
driver = "postgres"

[storage.postgres]
user = "blog"
password = "from-file"
host = "localhost"
port = "5432"
dbname = "blog"

[mail]
driver = "webhook"
webhookURL = "http://relay.local/send"
`)
	t.Setenv("POSTGRES_PASSWORD", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 5, cfg.Blog.PostsPerPage)
	assert.Equal(t, 4, cfg.Blog.SimilarLimit, "unset keys keep their defaults")
	assert.Equal(t, "from-env", cfg.Storage.Postgres.Password)
	assert.Equal(t, "webhook", cfg.Mail.Driver)
	assert.Equal(t, "admin@myblog.com", cfg.Mail.From)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `logLevel = `))
	assert.Error(t, err)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("BLOG_HTTP_ADDR", ":7000")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"unknown storage", func(c *Config) { c.Storage.Driver = "sqlite" }, "storage.driver"},
		{"postgres without settings", func(c *Config) { c.Storage.Driver = DriverPostgres }, "storage.postgres"},
		{"mongo without settings", func(c *Config) { c.Comments.Driver = DriverMongo }, "comments.mongo"},
		{"unknown comments", func(c *Config) { c.Comments.Driver = "redis" }, "comments.driver"},
		{"zero page size", func(c *Config) { c.Blog.PostsPerPage = 0 }, "postsPerPage"},
		{"zero similar limit", func(c *Config) { c.Blog.SimilarLimit = 0 }, "similarLimit"},
		{"threshold out of range", func(c *Config) { c.Blog.SearchThreshold = 1.5 }, "searchThreshold"},
		{"threshold zero", func(c *Config) { c.Blog.SearchThreshold = 0 }, "searchThreshold"},
		{"bad zone", func(c *Config) { c.Blog.TimeZone = "Mars/Olympus" }, "timeZone"},
		{"bad shutdown", func(c *Config) { c.HTTP.ShutdownTimeout = "later" }, "shutdownTimeout"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "logLevel"},
		{"bad mail", func(c *Config) { c.Mail.Driver = "fax" }, "mail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestString_MasksSecrets(t *testing.T) {
	cfg := Default()
	cfg.Storage.Postgres.Password = "pg-secret"
	cfg.Comments.Mongo.Pass = "mongo-secret"

	s := cfg.String()
	assert.False(t, strings.Contains(s, "pg-secret"))
	assert.False(t, strings.Contains(s, "mongo-secret"))
	assert.Equal(t, "pg-secret", cfg.Storage.Postgres.Password)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, log.WarnLevel, lvl)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestShutdownTimeout(t *testing.T) {
	cfg := Default()
	d, err := cfg.ShutdownTimeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)
}
