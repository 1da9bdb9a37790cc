package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "go.yaml.in/yaml/v3"
)

const EnvPrefix = "BLOGFRONT_"

// Config is the process-wide configuration. It starts out with the defaults
// so that packages reading it during init (logging, urls) get sane values,
// and is replaced wholesale by Load.
var Config = Defaults()

func Defaults() BlogfrontConfig {
	return BlogfrontConfig{
		Env:      Dev,
		Addr:     ":9490",
		BaseUrl:  "http://localhost:9490",
		LogLevel: "info",
		Backend: BackendConfig{
			BaseUrl:    "http://localhost:9491",
			LoginUrl:   "http://localhost:9491/user/github",
			Timeout:    10 * time.Second,
			MaxRetries: 3,
		},
		Site: SiteConfig{
			Name:        "Blogfront",
			Avatar:      "/public/avatar.svg",
			Description: "A personal blog",
			AccentColor: "#fc466b",
			PageSize:    10,
		},
		Diagram: DiagramConfig{
			MmdcPath:  "mmdc",
			CachePath: "diagrams.db",
			Timeout:   20 * time.Second,
		},
		ClientConfig: ClientConfigConfig{
			RefreshSchedule: "@every 5m",
		},
		DevBackend: DevBackendConfig{
			Addr:     ":9491",
			Articles: 24,
			Token:    "dev-token",
		},
	}
}

// Load reads the YAML file at path (if it exists), overlays BLOGFRONT_*
// environment variables, validates the result and installs it as Config.
// Nested keys use a double underscore: BLOGFRONT_BACKEND__BASE_URL.
func Load(path string) error {
	cfg, err := Read(path)
	if err != nil {
		return err
	}
	Config = cfg
	return nil
}

func Read(path string) (BlogfrontConfig, error) {
	k := koanf.New(".")
	cfg := Defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return cfg, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return cfg, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.BaseUrl = strings.TrimSuffix(cfg.BaseUrl, "/")
	cfg.Backend.BaseUrl = strings.TrimSuffix(cfg.Backend.BaseUrl, "/")

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var validEnvironments = map[Environment]bool{
	Live: true,
	Beta: true,
	Dev:  true,
}

var validRenderers = map[string]bool{
	"":     true,
	"mmdc": true,
}

func (c *BlogfrontConfig) Validate() error {
	if !validEnvironments[c.Env] {
		return fmt.Errorf("invalid env %q: must be one of live, beta, dev", c.Env)
	}
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if _, err := url.Parse(c.BaseUrl); err != nil {
		return fmt.Errorf("invalid base_url %q: %w", c.BaseUrl, err)
	}
	if c.Backend.BaseUrl == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if _, err := url.Parse(c.Backend.BaseUrl); err != nil {
		return fmt.Errorf("invalid backend.base_url %q: %w", c.Backend.BaseUrl, err)
	}
	if c.Backend.MaxRetries < 0 {
		return fmt.Errorf("backend.max_retries must be non-negative")
	}
	if c.Site.PageSize <= 0 {
		return fmt.Errorf("site.page_size must be positive")
	}
	if !validRenderers[c.Diagram.Renderer] {
		return fmt.Errorf("invalid diagram.renderer %q: must be empty or mmdc", c.Diagram.Renderer)
	}
	return nil
}

// YAML renders the config in the same shape Read accepts, so the output of
// the config command can be used as a config file.
func (c *BlogfrontConfig) YAML() ([]byte, error) {
	return yamlv3.Marshal(c)
}
