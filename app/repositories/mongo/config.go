package mongo

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo/options"
)

type Config struct {
	Host   string `toml:"host"`
	Port   string `toml:"port"`
	DBName string `toml:"dbname"`
	User   string `toml:"user"`
	Pass   string `toml:"pass"`
}

func (c *Config) conString() string {
	if c.User != "" && c.Pass != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%s/", c.User, c.Pass, c.Host, c.Port)
	}
	return fmt.Sprintf("mongodb://%s:%s/", c.Host, c.Port)
}

func (c *Config) Options() *options.ClientOptions {
	return options.Client().ApplyURI(c.conString())
}

func (c Config) String() string {
	c.Pass = strings.Repeat("*", len([]rune(c.Pass)))
	return fmt.Sprintf("%#v", c)
}

func (c *Config) IsValid() bool {
	return c.Host != "" && c.Port != "" && c.DBName != ""
}
