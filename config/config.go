package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/reusedev/sketch-relay/internal/consts"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

const (
	EnvReplicateToken = "REPLICATE_API_TOKEN"
	EnvNodeAPIURL     = "NODE_API_URL"
	EnvHTTPAddr       = "HTTP_ADDR"
	EnvLogLevel       = "LOG_LEVEL"

	DefaultOrigin = "http://localhost:5000"
)

type Config struct {
	Server     `yaml:"server"`
	Log        `yaml:"log"`
	Replicate  `yaml:"replicate"`
	CORS       `yaml:"cors"`
	Generation `yaml:"generation"`
}

type Server struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
}

type Log struct {
	LogLevel      string `yaml:"level"`
	LogFile       string `yaml:"file"`
	LogMaxSize    int    `yaml:"max_size"`
	LogMaxBackups int    `yaml:"max_backups"`
	LogMaxAge     int    `yaml:"max_age"`
}

type Replicate struct {
	Token             string `yaml:"token"`
	BaseURL           string `yaml:"base_url"`
	Model             string `yaml:"model"`
	PollInterval      string `yaml:"poll_interval"`
	PredictionTimeout string `yaml:"prediction_timeout"`
	RequestTimeout    string `yaml:"request_timeout"`
	// PreferWait is sent as "Prefer: wait=N" on prediction creation; 0 disables it.
	PreferWait int `yaml:"prefer_wait"`
}

type CORS struct {
	AllowOrigins []string `yaml:"allow_origins"`
	NodeAPIURL   string   `yaml:"node_api_url"`
}

type Generation struct {
	DefaultDescription string  `yaml:"default_description"`
	MaxEdge            int     `yaml:"max_edge"`
	JPEGQuality        int     `yaml:"jpeg_quality"`
	OutputFormat       string  `yaml:"output_format"`
	AspectRatio        string  `yaml:"aspect_ratio"`
	GuidanceScale      float64 `yaml:"guidance_scale"`
	DownloadTimeout    string  `yaml:"download_timeout"`
}

func Default() *Config {
	return &Config{
		Server: Server{
			Addr:        ":4000",
			MaxUploadMB: 32,
		},
		Log: Log{
			LogLevel:      "info",
			LogMaxSize:    100,
			LogMaxBackups: 7,
			LogMaxAge:     30,
		},
		Replicate: Replicate{
			BaseURL:           consts.ReplicateBaseURL,
			Model:             consts.FluxKontextPro,
			PollInterval:      "1s",
			PredictionTimeout: "10m",
			RequestTimeout:    "2m",
			PreferWait:        60,
		},
		CORS: CORS{
			AllowOrigins: []string{DefaultOrigin},
		},
		Generation: Generation{
			DefaultDescription: "beautiful gold jewelry",
			MaxEdge:            1024,
			JPEGQuality:        85,
			OutputFormat:       "png",
			AspectRatio:        "1:1",
			GuidanceScale:      3.5,
			DownloadTimeout:    "60s",
		},
	}
}

// Load builds the process configuration once at start: defaults, then the
// YAML file at filePath (skipped when absent), then environment overrides.
// A .env file in the working directory is loaded into the environment first.
func Load(filePath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := Default()
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", filePath, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvReplicateToken); ok {
		c.Replicate.Token = strings.TrimSpace(v)
	}
	if v := os.Getenv(EnvNodeAPIURL); v != "" {
		c.CORS.NodeAPIURL = v
	}
	if v := os.Getenv(EnvHTTPAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.LogLevel = v
	}
}

func (c *Config) Verify() error {
	for name, v := range map[string]string{
		"replicate.poll_interval":      c.Replicate.PollInterval,
		"replicate.prediction_timeout": c.Replicate.PredictionTimeout,
		"replicate.request_timeout":    c.Replicate.RequestTimeout,
		"generation.download_timeout":  c.Generation.DownloadTimeout,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Replicate.Model == "" {
		return fmt.Errorf("replicate.model must be set")
	}
	if c.Generation.MaxEdge <= 0 {
		return fmt.Errorf("generation.max_edge must be positive")
	}
	if c.Generation.JPEGQuality < 1 || c.Generation.JPEGQuality > 100 {
		return fmt.Errorf("generation.jpeg_quality must be within 1..100")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}
	for _, origin := range c.AllowedOrigins() {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("cors origin %q must start with http:// or https://", origin)
		}
	}
	return nil
}

// APIConfigured reports whether a Replicate token is available.
func (c *Config) APIConfigured() bool {
	return c.Replicate.Token != ""
}

// AllowedOrigins lists the origins accepted on /api routes.
func (c *Config) AllowedOrigins() []string {
	origins := append([]string{DefaultOrigin}, c.CORS.AllowOrigins...)
	origins = append(origins, c.CORS.NodeAPIURL)
	origins = lo.Map(origins, func(o string, _ int) string {
		return strings.TrimRight(strings.TrimSpace(o), "/")
	})
	return lo.Uniq(lo.Compact(origins))
}

func (r Replicate) PollIntervalDuration() time.Duration {
	return mustDuration(r.PollInterval)
}

func (r Replicate) PredictionTimeoutDuration() time.Duration {
	return mustDuration(r.PredictionTimeout)
}

func (r Replicate) RequestTimeoutDuration() time.Duration {
	return mustDuration(r.RequestTimeout)
}

func (g Generation) DownloadTimeoutDuration() time.Duration {
	return mustDuration(g.DownloadTimeout)
}

// mustDuration is only called on values already checked by Verify.
func mustDuration(v string) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	return d
}
