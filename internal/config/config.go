package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/travel-viability/internal/common"
	"github.com/i474232898/travel-viability/internal/travel"
	"github.com/i474232898/travel-viability/internal/travel/providers"
)

type AppConfig struct {
	// Cities to score on every run.
	Cities []travel.City

	// Substitute values used when the exchange or time APIs fail.
	ExchangeFallback map[string]float64
	TimezoneFallback providers.TimezoneFallback

	OutputDir     string
	ReportFormats []string

	HTTPTimeout time.Duration

	// RunSchedule (cron) wins over RunInterval when set.
	RunInterval time.Duration
	RunSchedule string

	WeatherBaseURL  string
	ExchangeBaseURL string
	TimezoneBaseURL string

	HistoryDays   int
	HistoryJitter float64
	HistorySeed   int64
	RateCacheTTL  time.Duration

	ProviderRateLimit  float64 // requests per second, 0 = unlimited
	ProviderBurst      int
	BreakerMaxFailures uint32
	ReferenceUTCOffset int

	TelegramBotToken string
	TelegramChatID   string
	GeocoderAPIKey   string

	AnomalyContamination float64
	AnomalySeed          int64
	AnomalyTrees         int

	// In-memory store retention.
	StoreMaxHistory int           // max number of records per city (0 = unlimited)
	StoreMaxAge     time.Duration // max age of records (0 = unlimited)

	Port      string
	LogLevel  string
	LogFormat string
}

// cityFile is the optional YAML document named by CITIES_FILE.
type cityFile struct {
	Cities           []travel.City               `yaml:"cities" validate:"dive"`
	ExchangeFallback map[string]float64          `yaml:"exchange_fallback" validate:"dive,gt=0"`
	TimezoneFallback *providers.TimezoneFallback `yaml:"timezone_fallback"`
}

var validate = validator.New()

// DefaultCities is used when no CITIES_FILE is configured.
func DefaultCities() []travel.City {
	return []travel.City{
		{Name: "Nueva York", Latitude: 40.7128, Longitude: -74.0060, Currency: "USD", Timezone: "America/New_York", Country: "US"},
		{Name: "Londres", Latitude: 51.5074, Longitude: -0.1278, Currency: "GBP", Timezone: "Europe/London", Country: "GB"},
		{Name: "Tokio", Latitude: 35.6762, Longitude: 139.6503, Currency: "JPY", Timezone: "Asia/Tokyo", Country: "JP"},
		{Name: "São Paulo", Latitude: -23.5505, Longitude: -46.6333, Currency: "BRL", Timezone: "America/Sao_Paulo", Country: "BR"},
		{Name: "Sídney", Latitude: -33.8688, Longitude: 151.2093, Currency: "AUD", Timezone: "Australia/Sydney", Country: "AU"},
	}
}

// Load reads configuration from the environment (and .env) with sensible defaults.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from the current environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.OutputDir = getenvDefault("OUTPUT_DIR", "data/outputs")
	cfg.ReportFormats = common.SplitList(getenvDefault("REPORT_FORMATS", "json,csv"))

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.RunInterval, err = getenvDuration("RUN_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	// Report files are stamped to the second.
	if cfg.RunInterval < time.Second {
		return nil, fmt.Errorf("invalid RUN_INTERVAL: must be at least 1s")
	}
	cfg.RunSchedule = strings.TrimSpace(os.Getenv("RUN_SCHEDULE"))
	if cfg.RunSchedule != "" {
		if _, err := cron.ParseStandard(cfg.RunSchedule); err != nil {
			return nil, fmt.Errorf("invalid RUN_SCHEDULE: %w", err)
		}
	}

	cfg.WeatherBaseURL = getenvDefault("WEATHER_BASE_URL", providers.DefaultOpenMeteoURL)
	cfg.ExchangeBaseURL = getenvDefault("EXCHANGE_BASE_URL", providers.DefaultExchangeRateURL)
	cfg.TimezoneBaseURL = getenvDefault("TIMEZONE_BASE_URL", providers.DefaultWorldTimeURL)

	cfg.HistoryDays = getenvInt("EXCHANGE_HISTORY_DAYS", travel.DefaultHistoryDays)
	if cfg.HistoryJitter, err = getenvFloat("EXCHANGE_HISTORY_JITTER", providers.DefaultHistoryJitter); err != nil {
		return nil, err
	}
	cfg.HistorySeed = int64(getenvInt("EXCHANGE_HISTORY_SEED", 0))
	if cfg.RateCacheTTL, err = getenvDuration("EXCHANGE_CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}

	if cfg.ProviderRateLimit, err = getenvFloat("PROVIDER_RATE_LIMIT", 0); err != nil {
		return nil, err
	}
	cfg.ProviderBurst = getenvInt("PROVIDER_BURST", 1)
	cfg.BreakerMaxFailures = uint32(getenvInt("BREAKER_MAX_FAILURES", 5))
	cfg.ReferenceUTCOffset = getenvInt("REFERENCE_UTC_OFFSET", providers.DefaultReferenceUTCOffset)

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	if cfg.AnomalyContamination, err = getenvFloat("ANOMALY_CONTAMINATION", 0.2); err != nil {
		return nil, err
	}
	if cfg.AnomalyContamination <= 0 || cfg.AnomalyContamination >= 0.5 {
		return nil, fmt.Errorf("invalid ANOMALY_CONTAMINATION: must be in (0, 0.5)")
	}
	cfg.AnomalySeed = int64(getenvInt("ANOMALY_SEED", 42))
	cfg.AnomalyTrees = getenvInt("ANOMALY_TREES", 100)

	// Store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", 24*time.Hour); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "console")

	cfg.Cities = DefaultCities()
	cfg.ExchangeFallback = providers.DefaultRateFallback()
	cfg.TimezoneFallback = providers.DefaultTimezoneFallback()
	if path := os.Getenv("CITIES_FILE"); path != "" {
		if err := cfg.loadCityFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// loadCityFile overrides whichever sections the file provides.
func (cfg *AppConfig) loadCityFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read CITIES_FILE: %w", err)
	}

	var f cityFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse CITIES_FILE: %w", err)
	}
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid CITIES_FILE: %w", err)
	}

	if len(f.Cities) > 0 {
		cfg.Cities = f.Cities
	}
	if len(f.ExchangeFallback) > 0 {
		cfg.ExchangeFallback = f.ExchangeFallback
	}
	if f.TimezoneFallback != nil {
		cfg.TimezoneFallback = *f.TimezoneFallback
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
