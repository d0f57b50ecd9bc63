package database

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DriverSQLite selects the embedded mattn/go-sqlite3 store.
	DriverSQLite = "sqlite3"
	// DriverPostgres selects lib/pq.
	DriverPostgres = "postgres"
)

// Config holds database connection settings.
type Config struct {
	Driver string `yaml:"driver" envconfig:"DB_DRIVER"`
	// Path is the sqlite3 database file; ":memory:" keeps it in process.
	Path string `yaml:"path" envconfig:"DB_PATH"`

	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// Normalize fills defaults and validates the driver selection.
func (c *Config) Normalize() error {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	switch c.Driver {
	case "", "sqlite":
		c.Driver = DriverSQLite
	case "postgresql", "pg":
		c.Driver = DriverPostgres
	}
	switch c.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Path) == "" {
			c.Path = "dopium.db"
		}
		// sqlite serialises writers; one connection also keeps ":memory:" coherent.
		c.MaxConnections = 1
	case DriverPostgres:
		if c.Host == "" || c.Name == "" {
			return fmt.Errorf("database.host and database.name are required for postgres")
		}
		if c.Port == "" {
			c.Port = "5432"
		}
		if c.SSLMode == "" {
			c.SSLMode = "disable"
		}
		if c.MaxConnections <= 0 {
			c.MaxConnections = 5
		}
	default:
		return fmt.Errorf("invalid database.driver %q; allowed: sqlite3, postgres", c.Driver)
	}
	return nil
}

// DSN renders the driver specific connection string.
func (c Config) DSN() string {
	if c.Driver == DriverPostgres {
		return fmt.Sprintf(
			"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
			c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
		)
	}
	if c.Path == ":memory:" {
		return c.Path
	}
	return "file:" + c.Path + "?_busy_timeout=5000&_foreign_keys=on"
}

// URL renders the postgres connection URL used by golang-migrate.
func (c Config) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// Target describes the database for logs without leaking credentials.
func (c Config) Target() string {
	if c.Driver == DriverPostgres {
		return c.Host + ":" + c.Port + "/" + c.Name
	}
	return c.Path
}
