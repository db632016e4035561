package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ProviderKind selects the generative model backend. It is resolved once, in Load.
type ProviderKind string

const (
	ProviderNone   ProviderKind = "none"
	ProviderOpenAI ProviderKind = "openai"
	ProviderGemini ProviderKind = "gemini"
)

// Config carries every tunable of the resolution pipeline.
type Config struct {
	// Directory
	DirectoryBaseURL  string        `yaml:"directory_base_url"`
	DirectoryAPIKey   string        `yaml:"directory_api_key"`
	ScanLeagues       []string      `yaml:"scan_leagues"`
	ClubSuffixes      []string      `yaml:"club_suffixes"`
	UpcomingLeagues   []string      `yaml:"upcoming_leagues"`
	UpcomingPerLeague int           `yaml:"upcoming_per_league"`
	UpcomingRefresh   time.Duration `yaml:"upcoming_refresh"`
	HomeCandidates    int           `yaml:"home_candidates"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`

	// Calendar
	TargetZoneName string        `yaml:"target_zone_name"`
	TargetOffset   time.Duration `yaml:"target_offset"`
	MonthNames     []string      `yaml:"month_names"`
	NightCutoff    int           `yaml:"night_cutoff_hour"`

	// AI fallback
	AIProvider    ProviderKind `yaml:"ai_provider"`
	AIAPIKey      string       `yaml:"-"`
	AIModel       string       `yaml:"ai_model"`
	AIBaseURL     string       `yaml:"ai_base_url"`
	SearchResults int          `yaml:"search_results"`
	BrowserSearch bool         `yaml:"browser_search"`

	// Logos
	LogoDir              string        `yaml:"logo_dir"`
	MinCacheBytes        int64         `yaml:"min_cache_bytes"`
	LogoMaxDimension     int           `yaml:"logo_max_dimension"`
	PlaceholderSize      int           `yaml:"placeholder_size"`
	ImageResultsPerQuery int           `yaml:"image_results_per_query"`
	ImagePauseMin        time.Duration `yaml:"image_pause_min"`
	ImagePauseMax        time.Duration `yaml:"image_pause_max"`
	RateLimitPause       time.Duration `yaml:"rate_limit_pause"`

	// Service
	ServerPort string `yaml:"server_port"`
	DSN        string `yaml:"-"`
	RedisURL   string `yaml:"-"`
	LogLevel   string `yaml:"log_level"`
	LogFile    string `yaml:"log_file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DirectoryBaseURL: "https://www.thesportsdb.com/api/v1/json",
		DirectoryAPIKey:  "478143",
		ScanLeagues: []string{
			"Italian Serie A",
			"Turkish Super Lig",
			"English Premier League",
			"Spanish La Liga",
			"American Major League Soccer",
			"German Bundesliga",
			"UEFA Champions League",
			"French Ligue 1",
			"NBA",
			"EuroLeague Basketball",
			"Turkish Basketbol Super Ligi",
		},
		ClubSuffixes:      []string{"AFC", "FC", "SK", "FK", "AS", "Calcio", "S.K.", "F.K.", "A.S.", "J.K."},
		UpcomingLeagues:   []string{"4351", "4328", "4335", "4332", "4331"},
		UpcomingPerLeague: 5,
		UpcomingRefresh:   10 * time.Minute,
		HomeCandidates:    3,
		RequestTimeout:    10 * time.Second,

		TargetZoneName: "TRT",
		TargetOffset:   3 * time.Hour,
		MonthNames: []string{
			"OCAK", "ŞUBAT", "MART", "NİSAN", "MAYIS", "HAZİRAN",
			"TEMMUZ", "AĞUSTOS", "EYLÜL", "EKİM", "KASIM", "ARALIK",
		},
		NightCutoff: 6,

		AIProvider:    ProviderNone,
		SearchResults: 5,
		BrowserSearch: false,

		LogoDir:              "logos",
		MinCacheBytes:        1000,
		LogoMaxDimension:     500,
		PlaceholderSize:      500,
		ImageResultsPerQuery: 3,
		ImagePauseMin:        2 * time.Second,
		ImagePauseMax:        4 * time.Second,
		RateLimitPause:       5 * time.Second,

		ServerPort: "8080",
		LogLevel:   "info",
	}
}

// Load builds the configuration from defaults, an optional YAML file and the environment.
// A .env file in the working directory is honored when present.
func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := Default()

	if path := os.Getenv("MATCHDAY_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.DirectoryBaseURL = getEnv("SPORTSDB_BASE_URL", cfg.DirectoryBaseURL)
	cfg.DirectoryAPIKey = getEnv("SPORTSDB_API_KEY", cfg.DirectoryAPIKey)
	cfg.AIAPIKey = getEnv("AI_API_KEY", "")
	cfg.AIModel = getEnv("AI_MODEL", cfg.AIModel)
	cfg.AIBaseURL = getEnv("AI_BASE_URL", cfg.AIBaseURL)
	cfg.LogoDir = getEnv("LOGO_DIR", cfg.LogoDir)
	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.DSN = getEnv("DATABASE_DSN", "")
	cfg.RedisURL = getEnv("REDIS_URL", "")
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.BrowserSearch = getEnvBool("BROWSER_SEARCH", cfg.BrowserSearch)

	var err error
	if cfg.RequestTimeout, err = getEnvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return nil, err
	}
	if cfg.UpcomingRefresh, err = getEnvDuration("UPCOMING_REFRESH", cfg.UpcomingRefresh); err != nil {
		return nil, err
	}

	kind, err := SelectProvider(os.Getenv("AI_PROVIDER"), cfg.AIAPIKey)
	if err != nil {
		return nil, err
	}
	cfg.AIProvider = kind

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("directory", cfg.DirectoryBaseURL).
		Str("ai_provider", string(cfg.AIProvider)).
		Str("logo_dir", cfg.LogoDir).
		Str("server_port", cfg.ServerPort).
		Bool("history", cfg.DSN != "").
		Bool("stream", cfg.RedisURL != "").
		Dur("request_timeout", cfg.RequestTimeout).
		Msg("configuration loaded")

	return cfg, nil
}

// SelectProvider resolves the AI backend. An explicit name wins; otherwise
// an "sk-" key means OpenAI and any other non-empty key means Gemini.
func SelectProvider(explicit, apiKey string) (ProviderKind, error) {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case "openai":
		return ProviderOpenAI, nil
	case "gemini", "google":
		return ProviderGemini, nil
	case "none", "off":
		return ProviderNone, nil
	case "":
	default:
		return ProviderNone, fmt.Errorf("unknown AI_PROVIDER %q (supported: openai, gemini, none)", explicit)
	}

	switch {
	case apiKey == "":
		return ProviderNone, nil
	case strings.HasPrefix(apiKey, "sk-"):
		return ProviderOpenAI, nil
	default:
		return ProviderGemini, nil
	}
}

// Validate checks invariants the resolvers rely on.
func (c *Config) Validate() error {
	if len(c.MonthNames) != 12 {
		return fmt.Errorf("month_names must have 12 entries, got %d", len(c.MonthNames))
	}
	if c.NightCutoff < 0 || c.NightCutoff > 23 {
		return fmt.Errorf("night_cutoff_hour out of range: %d", c.NightCutoff)
	}
	if c.HomeCandidates < 1 {
		return fmt.Errorf("home_candidates must be positive")
	}
	if c.ImagePauseMax < c.ImagePauseMin {
		return fmt.Errorf("image_pause_max must not be below image_pause_min")
	}
	if c.AIProvider != ProviderNone && c.AIAPIKey == "" {
		return fmt.Errorf("AI provider %s requires AI_API_KEY", c.AIProvider)
	}
	return nil
}

// DirectoryURL is the base URL with the API key path segment.
func (c *Config) DirectoryURL() string {
	return strings.TrimRight(c.DirectoryBaseURL, "/") + "/" + c.DirectoryAPIKey
}

// TargetZone is the fixed zone every kickoff time is reported in.
func (c *Config) TargetZone() *time.Location {
	return time.FixedZone(c.TargetZoneName, int(c.TargetOffset.Seconds()))
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
