package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	AI       AIConfig
	Match    MatchConfig
	Log      LogConfig
}

type AppConfig struct {
	AppName          string
	Environment      string
	HTTPPort         string
	CORSAllowOrigins []string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout  time.Duration
	PoolMaxConns    int32
	PoolMinConns    int32
	MaxConnLifetime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

type JWTConfig struct {
	AccessSecret    string
	AccessExpiresIn time.Duration
}

type AIConfig struct {
	Provider          string
	SecondMeBaseURL   string
	SecondMeAPIKey    string
	GeminiAPIKey      string
	GeminiModel       string
	IcebreakerTimeout time.Duration
	DNATimeout        time.Duration
	MaxResponseBytes  int
}

type MatchConfig struct {
	UnlockCost        int
	DiscoveryPageSize int
	DiscoveryCooldown time.Duration
	UnlockTimeout     time.Duration
}

type LogConfig struct {
	JSON  bool
	Debug bool
}

const (
	ProviderSecondMe = "secondme"
	ProviderGemini   = "gemini"
)

var errMissingRequiredEnv = errors.New("missing required environment variables")

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_CONNECT_TIMEOUT", "5s")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 0)
	v.SetDefault("DB_MAX_CONN_LIFETIME", "30m")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_TTL", "10m")

	v.SetDefault("JWT_ACCESS_EXPIRES_IN", "168h")

	v.SetDefault("AI_PROVIDER", ProviderSecondMe)
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("AI_ICEBREAKER_TIMEOUT", "8s")
	v.SetDefault("AI_DNA_TIMEOUT", "30s")
	v.SetDefault("AI_MAX_RESPONSE_BYTES", 64*1024)

	v.SetDefault("MATCH_UNLOCK_COST", 10)
	v.SetDefault("MATCH_DISCOVERY_PAGE_SIZE", 50)
	v.SetDefault("MATCH_DISCOVERY_COOLDOWN", "15s")
	v.SetDefault("MATCH_UNLOCK_TIMEOUT", "30s")

	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
}

// Load reads configuration from the environment. All missing required keys
// are reported in a single error.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return load(v)
}

func load(v *viper.Viper) (Config, error) {
	var missing []string
	req := func(key string) string {
		s := strings.TrimSpace(v.GetString(key))
		if s == "" {
			missing = append(missing, key)
		}
		return s
	}
	opt := func(key string) string {
		return strings.TrimSpace(v.GetString(key))
	}

	cfg := Config{}
	cfg.App = AppConfig{
		AppName:          req("APP_NAME"),
		Environment:      req("APP_ENV"),
		HTTPPort:         req("HTTP_PORT"),
		CORSAllowOrigins: splitList(opt("CORS_ALLOW_ORIGINS")),
	}

	cfg.Database = DatabaseConfig{
		DBHost:          opt("DB_HOST"),
		DBPort:          opt("DB_PORT"),
		DBName:          opt("DB_NAME"),
		DBUser:          opt("DB_USER"),
		DBPassword:      v.GetString("DB_PASSWORD"),
		DBSSLMode:       opt("DB_SSL_MODE"),
		ConnectTimeout:  v.GetDuration("DB_CONNECT_TIMEOUT"),
		PoolMaxConns:    v.GetInt32("DB_MAX_CONNS"),
		PoolMinConns:    v.GetInt32("DB_MIN_CONNS"),
		MaxConnLifetime: v.GetDuration("DB_MAX_CONN_LIFETIME"),
	}

	cfg.Redis = RedisConfig{
		Host:     opt("REDIS_HOST"),
		Port:     opt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		TTL:      v.GetDuration("REDIS_TTL"),
	}

	cfg.JWT = JWTConfig{
		AccessSecret:    req("JWT_ACCESS_SECRET"),
		AccessExpiresIn: v.GetDuration("JWT_ACCESS_EXPIRES_IN"),
	}

	cfg.AI = AIConfig{
		Provider:          strings.ToLower(opt("AI_PROVIDER")),
		SecondMeBaseURL:   strings.TrimRight(opt("SECONDME_API_BASE_URL"), "/"),
		SecondMeAPIKey:    opt("SECONDME_API_KEY"),
		GeminiAPIKey:      opt("GEMINI_API_KEY"),
		GeminiModel:       opt("GEMINI_MODEL"),
		IcebreakerTimeout: v.GetDuration("AI_ICEBREAKER_TIMEOUT"),
		DNATimeout:        v.GetDuration("AI_DNA_TIMEOUT"),
		MaxResponseBytes:  v.GetInt("AI_MAX_RESPONSE_BYTES"),
	}

	cfg.Match = MatchConfig{
		UnlockCost:        v.GetInt("MATCH_UNLOCK_COST"),
		DiscoveryPageSize: v.GetInt("MATCH_DISCOVERY_PAGE_SIZE"),
		DiscoveryCooldown: v.GetDuration("MATCH_DISCOVERY_COOLDOWN"),
		UnlockTimeout:     v.GetDuration("MATCH_UNLOCK_TIMEOUT"),
	}

	cfg.Log = LogConfig{
		JSON:  v.GetBool("LOG_JSON"),
		Debug: v.GetBool("LOG_DEBUG"),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	switch cfg.AI.Provider {
	case ProviderSecondMe, ProviderGemini:
	default:
		return Config{}, fmt.Errorf("unsupported AI_PROVIDER %q", cfg.AI.Provider)
	}
	if cfg.Match.UnlockCost <= 0 {
		return Config{}, fmt.Errorf("MATCH_UNLOCK_COST must be positive")
	}

	return cfg, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
