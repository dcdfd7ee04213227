package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the discovery API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Planner   PlannerConfig   `yaml:"planner"`
	Trending  TrendingConfig  `yaml:"trending"`
	Feed      FeedConfig      `yaml:"feed"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	CallTimeoutMs    int      `yaml:"call_timeout_ms"`
}

// SearchConfig holds search and suggestion settings.
type SearchConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
	FacetTopK       int `yaml:"facet_top_k"`
	SuggestMinChars int `yaml:"suggest_min_chars"`
	SuggestMaxCount int `yaml:"suggest_max_count"`
}

// PlannerConfig holds query tier thresholds and per-tier result caps.
type PlannerConfig struct {
	ModerateMinSignals int `yaml:"moderate_min_signals"`
	ComplexMinSignals  int `yaml:"complex_min_signals"`
	SimpleCap          int `yaml:"simple_cap"`
	ModerateCap        int `yaml:"moderate_cap"`
	ComplexCap         int `yaml:"complex_cap"`
}

// TrendingConfig holds the trending score weights and refresher settings.
// The weight values carry no documented derivation, which is exactly why
// they live here and not in code.
type TrendingConfig struct {
	ViewWeight       float64 `yaml:"view_weight"`
	LikeWeight       float64 `yaml:"like_weight"`
	CommentWeight    float64 `yaml:"comment_weight"`
	ShareWeight      float64 `yaml:"share_weight"`
	RecencyWeight    float64 `yaml:"recency_weight"`
	DecayHalfLifeHrs int     `yaml:"decay_half_life_hours"`
	VerifiedBoost    float64 `yaml:"verified_boost"`
	CandidateLimit   int     `yaml:"candidate_limit"`
	RefreshEverySec  int     `yaml:"refresh_every_sec"`
	MaxStaleSec      int     `yaml:"max_stale_sec"`
}

// FeedConfig holds personalization settings.
type FeedConfig struct {
	HistoryDays         int     `yaml:"history_days"`
	EligibilityDays     int     `yaml:"eligibility_days"`
	CandidateLimit      int     `yaml:"candidate_limit"`
	FollowMultiplier    float64 `yaml:"follow_multiplier"`
	FollowedAuthorBonus float64 `yaml:"followed_author_bonus"`
}

// AnalyticsConfig holds the analytics dispatch settings.
type AnalyticsConfig struct {
	BufferSize     int `yaml:"buffer_size"`
	ClickWindowSec int `yaml:"click_window_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.CallTimeoutMs <= 0 {
		c.Database.CallTimeoutMs = 2000
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 20
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 100
	}
	if c.Search.FacetTopK <= 0 {
		c.Search.FacetTopK = 10
	}
	if c.Search.SuggestMinChars <= 0 {
		c.Search.SuggestMinChars = 2
	}
	if c.Search.SuggestMaxCount <= 0 {
		c.Search.SuggestMaxCount = 10
	}
	if c.Planner.ModerateMinSignals <= 0 {
		c.Planner.ModerateMinSignals = 2
	}
	if c.Planner.ComplexMinSignals <= 0 {
		c.Planner.ComplexMinSignals = 4
	}
	if c.Planner.SimpleCap <= 0 {
		c.Planner.SimpleCap = 500
	}
	if c.Planner.ModerateCap <= 0 {
		c.Planner.ModerateCap = 250
	}
	if c.Planner.ComplexCap <= 0 {
		c.Planner.ComplexCap = 100
	}
	if c.Trending.ViewWeight <= 0 {
		c.Trending.ViewWeight = 1
	}
	if c.Trending.LikeWeight <= 0 {
		c.Trending.LikeWeight = 3
	}
	if c.Trending.CommentWeight <= 0 {
		c.Trending.CommentWeight = 5
	}
	if c.Trending.ShareWeight <= 0 {
		c.Trending.ShareWeight = 8
	}
	if c.Trending.RecencyWeight <= 0 {
		c.Trending.RecencyWeight = 100
	}
	if c.Trending.DecayHalfLifeHrs <= 0 {
		c.Trending.DecayHalfLifeHrs = 48
	}
	if c.Trending.VerifiedBoost <= 0 {
		c.Trending.VerifiedBoost = 25
	}
	if c.Trending.CandidateLimit <= 0 {
		c.Trending.CandidateLimit = 1000
	}
	if c.Trending.RefreshEverySec <= 0 {
		c.Trending.RefreshEverySec = 300
	}
	if c.Trending.MaxStaleSec <= 0 {
		c.Trending.MaxStaleSec = 900
	}
	if c.Feed.HistoryDays <= 0 {
		c.Feed.HistoryDays = 30
	}
	if c.Feed.EligibilityDays <= 0 {
		c.Feed.EligibilityDays = 30
	}
	if c.Feed.CandidateLimit <= 0 {
		c.Feed.CandidateLimit = 500
	}
	if c.Feed.FollowMultiplier <= 0 {
		c.Feed.FollowMultiplier = 2
	}
	if c.Feed.FollowedAuthorBonus <= 0 {
		c.Feed.FollowedAuthorBonus = 50
	}
	if c.Analytics.BufferSize <= 0 {
		c.Analytics.BufferSize = 1024
	}
	if c.Analytics.ClickWindowSec <= 0 {
		c.Analytics.ClickWindowSec = 1800
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Database.Driver {
	case "redis", "valkey":
		// ok
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"valkey\", got %q", c.Database.Driver)
	}
	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("search.default_page_size %d exceeds search.max_page_size %d",
			c.Search.DefaultPageSize, c.Search.MaxPageSize)
	}
	if c.Planner.ComplexMinSignals <= c.Planner.ModerateMinSignals {
		return fmt.Errorf("planner.complex_min_signals must exceed planner.moderate_min_signals")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
