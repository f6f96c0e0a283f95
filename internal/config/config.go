// Package config loads the TOML configuration shared by cbf-mcp and cbftool.
//
// Every setting has a default, so an absent file or section is valid:
//
//	[log]
//	level = "debug"
//	timestamp = false
//
//	[cache]
//	frames = 4
//
//	[render]
//	colormap = "viridis"
//	low_percentile = 0.5
//	high_percentile = 99.9
//	gamma = 1.8
//	blur_sigma = 0.7
//
//	[cif]
//	strict = true
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/ironsheep/cbf-tools-mcp/internal/imaging"
	"github.com/ironsheep/cbf-tools-mcp/internal/logging"
)

// EnvConfigPath names the configuration file when no flag does.
const EnvConfigPath = "CBF_MCP_CONFIG"

type Config struct {
	Log    logging.Config        `toml:"log"`
	Cache  CacheConfig           `toml:"cache"`
	Render imaging.RenderOptions `toml:"render"`
	CIF    CIFConfig             `toml:"cif"`
}

type CacheConfig struct {
	Frames int `toml:"frames"`
}

type CIFConfig struct {
	// Strict rejects frames whose text header holds unterminated quotes or
	// text fields instead of reading them best-effort.
	Strict bool `toml:"strict"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log:    logging.DefaultConfig(),
		Cache:  CacheConfig{Frames: imaging.DefaultCacheFrames},
		Render: imaging.DefaultRenderOptions(),
	}
}

// Load reads path from fs over the defaults. An empty path returns the
// defaults. Unknown keys are an error.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	meta, err := toml.Decode(string(raw), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv is Load with the path taken from flagPath, falling back to
// $CBF_MCP_CONFIG.
func LoadEnv(fs afero.Fs, flagPath string) (Config, error) {
	path := strings.TrimSpace(flagPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	return Load(fs, path)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var result *multierror.Error
	if !logging.ValidLevel(c.Log.Level) {
		result = multierror.Append(result, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	if f := c.Log.Format; f != "logfmt" && f != "json" {
		result = multierror.Append(result, fmt.Errorf("log.format: must be logfmt or json, got %q", f))
	}
	if c.Cache.Frames < 1 {
		result = multierror.Append(result, fmt.Errorf("cache.frames: must be at least 1, got %d", c.Cache.Frames))
	}
	if err := c.Render.Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("render: %w", err))
	}
	return result.ErrorOrNil()
}
