package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Render RenderConfig `mapstructure:"render"`
}

type ServerConfig struct {
	Listen         string        `mapstructure:"listen"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RenderConfig struct {
	// Driver is one of software, sdl or kmsdrm
	Driver string `mapstructure:"driver"`
	// Decoder is go or sdl
	Decoder string `mapstructure:"decoder"`
	// Filter is the resample filter used by cropFill: nearest or linear
	Filter         string `mapstructure:"filter"`
	DRMCard        int    `mapstructure:"drm_card"`
	DRMFormat      string `mapstructure:"drm_format"`
	VertexShader   string `mapstructure:"vertex_shader"`
	FragmentShader string `mapstructure:"fragment_shader"`
	HiddenWindows  bool   `mapstructure:"hidden_windows"`
}

const envPrefix = "BITMAP"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("render.driver", "software")
	v.SetDefault("render.decoder", "go")
	v.SetDefault("render.filter", "nearest")
	v.SetDefault("render.drm_card", 0)
	v.SetDefault("render.drm_format", "xrgb32")
	v.SetDefault("render.hidden_windows", false)
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configPath (YAML) over the defaults. An empty path only applies
// defaults and BITMAP_* environment variables, e.g. BITMAP_RENDER_DRIVER.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the enumerated settings
func (c *Config) Validate() error {
	switch c.Render.Driver {
	case "software", "sdl", "kmsdrm":
	default:
		return fmt.Errorf("render.driver: unknown driver %q", c.Render.Driver)
	}
	switch c.Render.Decoder {
	case "go", "sdl":
	default:
		return fmt.Errorf("render.decoder: unknown decoder %q", c.Render.Decoder)
	}
	switch c.Render.Filter {
	case "nearest", "linear":
	default:
		return fmt.Errorf("render.filter: unknown filter %q", c.Render.Filter)
	}
	switch c.Render.DRMFormat {
	case "xrgb32", "rgb16":
	default:
		return fmt.Errorf("render.drm_format: unknown format %q", c.Render.DRMFormat)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}
	return nil
}
