package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `json:"server"`
	Redis    RedisConfig    `json:"redis"`
	Scraper  ScraperConfig  `json:"scraper"`
	Captcha  CaptchaConfig  `json:"captcha"`
	Browser  BrowserConfig  `json:"browser"`
	Log      LogConfig      `json:"log"`
	Security SecurityConfig `json:"security"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int    `json:"port"`
	Environment  string `json:"environment"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	IdleTimeout  int    `json:"idle_timeout"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	CacheTTL     time.Duration `json:"cache_ttl"`
}

// ScraperConfig holds the target-site scraper configuration
type ScraperConfig struct {
	// EntryURL is the public search landing page the browser opens.
	EntryURL string `json:"entry_url"`
	// SearchURL is the form endpoint both the search and detail POSTs hit.
	SearchURL        string        `json:"search_url"`
	LandingTimeout   time.Duration `json:"landing_timeout"`
	ChallengeTimeout time.Duration `json:"challenge_timeout"`
	SettleDelay      time.Duration `json:"settle_delay"`
	RequestTimeout   time.Duration `json:"request_timeout"`
	LogsDir          string        `json:"logs_dir"`
}

// CaptchaConfig holds the solving-service configuration. It is passed
// explicitly to the captcha client; there is no process-wide singleton.
type CaptchaConfig struct {
	APIKey          string        `json:"api_key"`
	SubmitURL       string        `json:"submit_url"`
	PollURL         string        `json:"poll_url"`
	PollInterval    time.Duration `json:"poll_interval"`
	MaxPollAttempts int           `json:"max_poll_attempts"`
}

// BrowserConfig holds browser automation configuration
type BrowserConfig struct {
	Headless     bool          `json:"headless"`
	WindowWidth  int           `json:"window_width"`
	WindowHeight int           `json:"window_height"`
	NavTimeout   time.Duration `json:"nav_timeout"`
	UserAgent    string        `json:"user_agent"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `json:"rate_limit"`
	CORS      CORSConfig      `json:"cors"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute"`
	BurstSize         int           `json:"burst_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvAsInt("PORT", 8080),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 30),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 300),
			IdleTimeout:  getEnvAsInt("IDLE_TIMEOUT", 60),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			DialTimeout:  time.Duration(getEnvAsInt("REDIS_DIAL_TIMEOUT", 5)) * time.Second,
			ReadTimeout:  time.Duration(getEnvAsInt("REDIS_READ_TIMEOUT", 3)) * time.Second,
			WriteTimeout: time.Duration(getEnvAsInt("REDIS_WRITE_TIMEOUT", 3)) * time.Second,
			CacheTTL:     time.Duration(getEnvAsInt("CACHE_TTL", 3600)) * time.Second,
		},
		Scraper: ScraperConfig{
			EntryURL:         getEnv("ILSOS_ENTRY_URL", "https://apps.ilsos.gov/businessentitysearch/"),
			SearchURL:        getEnv("ILSOS_SEARCH_URL", "https://apps.ilsos.gov/businessentitysearch/businessentitysearch"),
			LandingTimeout:   time.Duration(getEnvAsInt("LANDING_TIMEOUT", 10)) * time.Second,
			ChallengeTimeout: time.Duration(getEnvAsInt("CHALLENGE_TIMEOUT", 10)) * time.Second,
			SettleDelay:      time.Duration(getEnvAsInt("SETTLE_DELAY", 5)) * time.Second,
			RequestTimeout:   time.Duration(getEnvAsInt("REQUEST_TIMEOUT", 30)) * time.Second,
			LogsDir:          getEnv("LOGS_DIR", "logs"),
		},
		Captcha: CaptchaConfig{
			APIKey:          getEnv("SOLVECAPTCHA_API_KEY", ""),
			SubmitURL:       getEnv("CAPTCHA_SUBMIT_URL", "https://api.solvecaptcha.com/in.php"),
			PollURL:         getEnv("CAPTCHA_POLL_URL", "https://api.solvecaptcha.com/res.php"),
			PollInterval:    time.Duration(getEnvAsInt("CAPTCHA_POLL_INTERVAL", 1)) * time.Second,
			MaxPollAttempts: getEnvAsInt("CAPTCHA_MAX_POLL_ATTEMPTS", 120),
		},
		Browser: BrowserConfig{
			Headless:     getEnvAsBool("BROWSER_HEADLESS", true),
			WindowWidth:  getEnvAsInt("BROWSER_WINDOW_WIDTH", 1920),
			WindowHeight: getEnvAsInt("BROWSER_WINDOW_HEIGHT", 1080),
			NavTimeout:   time.Duration(getEnvAsInt("BROWSER_NAV_TIMEOUT", 60)) * time.Second,
			UserAgent:    getEnv("BROWSER_USER_AGENT", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 60),
				BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 10),
				CleanupInterval:   time.Duration(getEnvAsInt("RATE_LIMIT_CLEANUP", 60)) * time.Second,
			},
			CORS: CORSConfig{
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: false,
			},
		},
	}

	if cfg.Captcha.APIKey == "" {
		return nil, fmt.Errorf("SOLVECAPTCHA_API_KEY is required")
	}

	return cfg, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
