package config

import (
	"time"

	"github.com/rs/zerolog"
)

type Environment string

const (
	Live Environment = "live"
	Beta Environment = "beta"
	Dev  Environment = "dev"
)

type BlogfrontConfig struct {
	Env      Environment `koanf:"env" yaml:"env"`
	Addr     string      `koanf:"addr" yaml:"addr"`
	BaseUrl  string      `koanf:"base_url" yaml:"base_url"`
	LogLevel string      `koanf:"log_level" yaml:"log_level"`

	Backend      BackendConfig      `koanf:"backend" yaml:"backend"`
	Site         SiteConfig         `koanf:"site" yaml:"site"`
	Diagram      DiagramConfig      `koanf:"diagram" yaml:"diagram"`
	ClientConfig ClientConfigConfig `koanf:"client_config" yaml:"client_config"`
	DevConfig    DevConfig          `koanf:"dev" yaml:"dev"`
	DevBackend   DevBackendConfig   `koanf:"dev_backend" yaml:"dev_backend"`
}

type BackendConfig struct {
	BaseUrl    string        `koanf:"base_url" yaml:"base_url"`
	LoginUrl   string        `koanf:"login_url" yaml:"login_url"`
	Timeout    time.Duration `koanf:"timeout" yaml:"timeout"`
	MaxRetries int           `koanf:"max_retries" yaml:"max_retries"`
}

type SiteConfig struct {
	Name        string `koanf:"name" yaml:"name"`
	Avatar      string `koanf:"avatar" yaml:"avatar"`
	Description string `koanf:"description" yaml:"description"`
	AccentColor string `koanf:"accent_color" yaml:"accent_color"`
	PageSize    int    `koanf:"page_size" yaml:"page_size"`
}

type DiagramConfig struct {
	// One of "", "mmdc". Empty leaves diagram blocks for the browser.
	Renderer  string        `koanf:"renderer" yaml:"renderer"`
	MmdcPath  string        `koanf:"mmdc_path" yaml:"mmdc_path"`
	CachePath string        `koanf:"cache_path" yaml:"cache_path"`
	Timeout   time.Duration `koanf:"timeout" yaml:"timeout"`
}

type ClientConfigConfig struct {
	RefreshSchedule string `koanf:"refresh_schedule" yaml:"refresh_schedule"`
}

type DevConfig struct {
	LiveTemplates bool `koanf:"live_templates" yaml:"live_templates"`
}

type DevBackendConfig struct {
	Addr     string `koanf:"addr" yaml:"addr"`
	Articles int    `koanf:"articles" yaml:"articles"`
	Token    string `koanf:"token" yaml:"token"`
}

func (c *BlogfrontConfig) IsDev() bool {
	return c.Env == Dev
}

// Level parses LogLevel, falling back to info for anything unrecognized.
func (c *BlogfrontConfig) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return level
}
