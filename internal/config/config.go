package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "JOBDASH_"

type File struct {
	BackendURL             string  `yaml:"backend_url" json:"backend_url"`
	DiscoverMDNS           bool    `yaml:"discover_mdns" json:"discover_mdns"`
	MDNSService            string  `yaml:"mdns_service" json:"mdns_service"`
	MDNSAdvertise          bool    `yaml:"mdns_advertise" json:"mdns_advertise"`
	ListenAddr             string  `yaml:"listen_addr" json:"listen_addr"`
	Days                   int     `yaml:"days" json:"days"`
	PageSize               int     `yaml:"page_size" json:"page_size"`
	RefreshIntervalSeconds int     `yaml:"refresh_interval_seconds" json:"refresh_interval_seconds"`
	RequestTimeoutSeconds  int     `yaml:"request_timeout_seconds" json:"request_timeout_seconds"`
	MaxRequestsPerSecond   float64 `yaml:"max_requests_per_second" json:"max_requests_per_second"`
	StateDB                string  `yaml:"state_db" json:"state_db"`
	RefreshLogKeep         int     `yaml:"refresh_log_keep" json:"refresh_log_keep"`
	AutoRefresh            bool    `yaml:"auto_refresh" json:"auto_refresh"`
	LogLevel               string  `yaml:"log_level" json:"log_level"`
	LogFormat              string  `yaml:"log_format" json:"log_format"`
}

func Default() File {
	return File{
		MDNSService:            "_jobdash._tcp",
		ListenAddr:             ":8113",
		PageSize:               25,
		RefreshIntervalSeconds: 60,
		RequestTimeoutSeconds:  30,
		MaxRequestsPerSecond:   10,
		StateDB:                ".jobdash/state.db",
		RefreshLogKeep:         1000,
		LogLevel:               "info",
		LogFormat:              "text",
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (File, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read config file %q: %w", path, err)
	}
	return Parse(data, path)
}

func Parse(data []byte, source string) (File, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse YAML in %q: %w", source, err)
	}

	if errs := cfg.validateValues(); len(errs) > 0 {
		return cfg, fmt.Errorf("invalid config in %q: %s", source, strings.Join(errs, "; "))
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from JOBDASH_* variables found by lookup.
func (cfg *File) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var errs []string
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: %v", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: %v", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}

	str("BACKEND_URL", &cfg.BackendURL)
	boolean("DISCOVER_MDNS", &cfg.DiscoverMDNS)
	str("MDNS_SERVICE", &cfg.MDNSService)
	boolean("MDNS_ADVERTISE", &cfg.MDNSAdvertise)
	str("LISTEN_ADDR", &cfg.ListenAddr)
	integer("DAYS", &cfg.Days)
	integer("PAGE_SIZE", &cfg.PageSize)
	integer("REFRESH_INTERVAL_SECONDS", &cfg.RefreshIntervalSeconds)
	integer("REQUEST_TIMEOUT_SECONDS", &cfg.RequestTimeoutSeconds)
	if v, ok := lookup(EnvPrefix + "MAX_REQUESTS_PER_SECOND"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sMAX_REQUESTS_PER_SECOND: %v", EnvPrefix, err))
		} else {
			cfg.MaxRequestsPerSecond = f
		}
	}
	str("STATE_DB", &cfg.StateDB)
	integer("REFRESH_LOG_KEEP", &cfg.RefreshLogKeep)
	boolean("AUTO_REFRESH", &cfg.AutoRefresh)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks a fully resolved config, including that a backend can be
// located.
func (cfg File) Validate() []string {
	errs := cfg.validateValues()
	if strings.TrimSpace(cfg.BackendURL) == "" && !cfg.DiscoverMDNS {
		errs = append(errs, "backend_url is required unless discover_mdns is enabled")
	}
	return errs
}

func (cfg File) validateValues() []string {
	var errs []string
	if raw := strings.TrimSpace(cfg.BackendURL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("backend_url must be an absolute http(s) url, got %q", raw))
		}
	}
	if cfg.DiscoverMDNS && strings.TrimSpace(cfg.MDNSService) == "" {
		errs = append(errs, "mdns_service is required when discover_mdns is enabled")
	}
	if cfg.Days < 0 {
		errs = append(errs, "days must be >= 0")
	}
	if cfg.PageSize < 1 {
		errs = append(errs, "page_size must be >= 1")
	}
	if cfg.RefreshIntervalSeconds < 1 {
		errs = append(errs, "refresh_interval_seconds must be >= 1")
	}
	if cfg.RequestTimeoutSeconds < 1 {
		errs = append(errs, "request_timeout_seconds must be >= 1")
	}
	if cfg.MaxRequestsPerSecond < 0 {
		errs = append(errs, "max_requests_per_second must be >= 0")
	}
	if cfg.RefreshLogKeep < 0 {
		errs = append(errs, "refresh_log_keep must be >= 0")
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		errs = append(errs, err.Error())
	}
	switch strings.ToLower(strings.TrimSpace(cfg.LogFormat)) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log_format must be text or json, got %q", cfg.LogFormat))
	}
	return errs
}

func (cfg File) RequestTimeout() time.Duration {
	return time.Duration(cfg.RequestTimeoutSeconds) * time.Second
}

func ParseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level must be debug, info, warn or error, got %q", raw)
	}
}

// NewLogger builds the process logger described by the config.
func (cfg File) NewLogger(w io.Writer) *slog.Logger {
	level, _ := ParseLogLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(strings.TrimSpace(cfg.LogFormat), "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
