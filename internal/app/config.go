package app

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	coreconfig "github.com/m3rciful/dopiumbot/core/config"
	coredatabase "github.com/m3rciful/dopiumbot/core/database"
	"github.com/m3rciful/dopiumbot/internal/digest"
	"github.com/m3rciful/dopiumbot/internal/httpapi"
	"github.com/m3rciful/dopiumbot/internal/membership"
	"github.com/m3rciful/dopiumbot/internal/notify"
)

// DefaultTimezone is used for staff timestamps and the digest schedule.
const DefaultTimezone = "Asia/Tehran"

// StudioConfig holds the studio specific settings.
type StudioConfig struct {
	Membership membership.Config `yaml:"membership"`
	// CatalogPath overrides the embedded service catalog.
	CatalogPath string `yaml:"catalog_path" envconfig:"CATALOG_PATH"`
	Timezone    string `yaml:"timezone" envconfig:"STUDIO_TIMEZONE"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Studio   StudioConfig        `yaml:"studio"`
	Notify   notify.Config       `yaml:"notify"`
	HTTP     httpapi.Config      `yaml:"http"`
	Digest   digest.Config       `yaml:"digest"`

	location *time.Location
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// Location returns the studio time zone resolved by Normalize.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Load reads path, overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDatabase reads only the database section. Tools that never talk to
// Telegram use it so they do not need a bot token.
func LoadDatabase(path string) (coredatabase.Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return coredatabase.Config{}, err
	}
	if err := cfg.Database.Normalize(); err != nil {
		return coredatabase.Config{}, err
	}
	return cfg.Database, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}

	tz := strings.TrimSpace(c.Studio.Timezone)
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid studio.timezone %q: %w", tz, err)
	}
	c.Studio.Timezone = tz
	c.location = loc

	if c.Notify.Timeout < 0 {
		return fmt.Errorf("notify.timeout must be >= 0")
	}
	c.HTTP.Listen = strings.TrimSpace(c.HTTP.Listen)
	if c.HTTP.Listen != "" && strings.TrimSpace(c.HTTP.Token) == "" {
		return fmt.Errorf("http.token is required when http.listen is set")
	}
	c.Digest.Schedule = strings.TrimSpace(c.Digest.Schedule)
	return nil
}
