package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the gateway, loaded from
// command-line flags, then environment variables, then an optional config
// file named "gateway" on the search path, then built-in defaults.
type Config struct {
	Port        string
	MetricsPort string

	HLSRoot     string
	FFmpegPath  string
	FFprobePath string

	ProbeTimeout      time.Duration
	ReadyTimeoutFast  time.Duration
	ReadyTimeoutFull  time.Duration
	SessionInactivity time.Duration
	EvictionInterval  time.Duration

	MetricsEnabled     bool
	LogStaticFiles     bool
	LogHealthChecks    bool
	CORSAllowedOrigins []string
}

// flags defines the command-line overrides Load binds ahead of the
// environment and config file, so an operator can override the listen
// port or HLS root for a one-off run without exporting an env var.
func flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("hlsgateway", pflag.ContinueOnError)
	fs.String("port", "", "HTTP listen port")
	fs.String("metrics-port", "", "Prometheus metrics listen port")
	fs.String("hls-root", "", "session artifact root directory")
	fs.String("log-level", "", "zerolog level (debug, info, warn, error)")
	return fs
}

// Load reads configuration from command-line flags, the environment
// (prefix-free, matching the variable names in SPEC_FULL.md §6), and an
// optional config file, applying defaults for anything unset. Flags take
// precedence over the environment, which takes precedence over the file.
func Load() (*Config, error) {
	v := viper.New()

	fs := flags()
	if err := fs.Parse(os.Args[1:]); err == nil {
		v.BindPFlag("port", fs.Lookup("port"))
		v.BindPFlag("metrics_port", fs.Lookup("metrics-port"))
		v.BindPFlag("hls_root", fs.Lookup("hls-root"))
		v.BindPFlag("log_level", fs.Lookup("log-level"))
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("gateway")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/hlsgateway")

	v.SetDefault("port", "3000")
	v.SetDefault("metrics_port", "9477")
	v.SetDefault("hls_root", "/data/hls")
	v.SetDefault("ffmpeg_path", "ffmpeg")
	v.SetDefault("ffprobe_path", "ffprobe")
	v.SetDefault("probe_timeout", "20s")
	v.SetDefault("ready_timeout_fast", "50s")
	v.SetDefault("ready_timeout_full", "120s")
	v.SetDefault("session_inactivity", "2h")
	v.SetDefault("eviction_interval", "5m")
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("log_static_files", false)
	v.SetDefault("log_health_checks", true)
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	hlsRoot, err := filepath.Abs(v.GetString("hls_root"))
	if err != nil {
		return nil, fmt.Errorf("resolving hls_root: %w", err)
	}

	cfg := &Config{
		Port:               v.GetString("port"),
		MetricsPort:        v.GetString("metrics_port"),
		HLSRoot:            hlsRoot,
		FFmpegPath:         v.GetString("ffmpeg_path"),
		FFprobePath:        v.GetString("ffprobe_path"),
		ProbeTimeout:       v.GetDuration("probe_timeout"),
		ReadyTimeoutFast:   v.GetDuration("ready_timeout_fast"),
		ReadyTimeoutFull:   v.GetDuration("ready_timeout_full"),
		SessionInactivity:  v.GetDuration("session_inactivity"),
		EvictionInterval:   v.GetDuration("eviction_interval"),
		MetricsEnabled:     v.GetBool("metrics_enabled"),
		LogStaticFiles:     v.GetBool("log_static_files"),
		LogHealthChecks:    v.GetBool("log_health_checks"),
		CORSAllowedOrigins: splitOrigins(v.GetString("cors_allowed_origins")),
	}

	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 20 * time.Second
	}
	if cfg.ReadyTimeoutFast <= 0 {
		cfg.ReadyTimeoutFast = 50 * time.Second
	}
	if cfg.ReadyTimeoutFull <= 0 {
		cfg.ReadyTimeoutFull = 120 * time.Second
	}
	if cfg.SessionInactivity <= 0 {
		cfg.SessionInactivity = 2 * time.Hour
	}
	if cfg.EvictionInterval <= 0 {
		cfg.EvictionInterval = 5 * time.Minute
	}

	// logging.initLevel reads LOG_LEVEL lazily from the environment; a
	// flag or config-file value that won one of the earlier precedence
	// checks needs to land there too.
	if os.Getenv("LOG_LEVEL") == "" {
		os.Setenv("LOG_LEVEL", v.GetString("log_level"))
	}

	return cfg, nil
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
