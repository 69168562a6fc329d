package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint      string
	OTLPProtocol      string
	OtelEnabled       bool
	OtelSamplingRatio float64
	LogLevel          string
	LogFormat         string

	Exact ExactConfig
	Cache CacheConfig

	JournalEnabled    bool
	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

// ExactConfig configures the ERP connection and the request shaping rules.
type ExactConfig struct {
	BaseURL        string
	Division       string
	ClientID       string
	ClientSecret   string
	RedirectURI    string
	RequestTimeout time.Duration

	HomeCountry       string
	SecondHomeCountry string
	PriceListName     string
	// ProspectStatus is the account status used when a quotation creates the account.
	ProspectStatus string
	// PurchaseDescriptionPrefix selects supplier orders by description.
	PurchaseDescriptionPrefix string
	// PrintedMarker in goods delivery remarks marks a delivery as already printed.
	PrintedMarker string

	StrictPaymentCondition bool
	RulesFile              string

	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
	RefreshLockTTL     time.Duration
}

// CacheConfig selects the shared cache backend.
type CacheConfig struct {
	Driver        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "exactsync"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint:      getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317")),
		OTLPProtocol:      strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
		OtelEnabled:       getenvBool("OTEL_ENABLED", true),
		OtelSamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		LogLevel:          strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
		LogFormat:         strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
		Exact: ExactConfig{
			BaseURL:                   strings.TrimRight(getenv("EXACT_BASE_URL", "https://start.exactonline.de"), "/"),
			Division:                  strings.TrimSpace(getenv("EXACT_DIVISION", "")),
			ClientID:                  strings.TrimSpace(getenv("EXACT_CLIENT_ID", "")),
			ClientSecret:              strings.TrimSpace(getenv("EXACT_CLIENT_SECRET", "")),
			RedirectURI:               strings.TrimSpace(getenv("EXACT_REDIRECT_URI", "")),
			RequestTimeout:            getenvDuration("EXACT_REQUEST_TIMEOUT", 30*time.Second),
			HomeCountry:               strings.ToUpper(getenv("EXACT_HOME_COUNTRY", "DE")),
			SecondHomeCountry:         strings.ToUpper(getenv("EXACT_SECOND_HOME_COUNTRY", "CH")),
			PriceListName:             getenv("EXACT_PRICE_LIST", "VK Preisliste Shop"),
			ProspectStatus:            getenv("EXACT_PROSPECT_STATUS", "P"),
			PurchaseDescriptionPrefix: strings.ToLower(getenv("EXACT_PURCHASE_DESCRIPTION_PREFIX", "moedel")),
			PrintedMarker:             getenv("EXACT_PRINTED_MARKER", "Gedruckt"),
			StrictPaymentCondition:    getenvBool("EXACT_STRICT_PAYMENT_CONDITION", true),
			RulesFile:                 strings.TrimSpace(getenv("EXACT_RULES_FILE", "")),
			BreakerMaxFailures:        uint32(getenvInt("EXACT_BREAKER_MAX_FAILURES", 5)),
			BreakerOpenTimeout:        getenvDuration("EXACT_BREAKER_OPEN_TIMEOUT", 30*time.Second),
			RefreshLockTTL:            getenvDuration("EXACT_REFRESH_LOCK_TTL", 15*time.Second),
		},
		Cache: CacheConfig{
			Driver:        normalizeCacheDriver(getenv("CACHE_DRIVER", CacheDriverMemory)),
			RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("REDIS_DB", 0),
			KeyPrefix:     getenv("CACHE_PREFIX", "exactsync:"),
		},
		JournalEnabled:    getenvBool("JOURNAL_ENABLED", false),
		DBType:            getenv("DATABASE_TYPE", "sqlite"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "exactsync"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "exactsync.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
	}

	return cfg
}

func normalizeCacheDriver(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case CacheDriverRedis:
		return CacheDriverRedis
	default:
		return CacheDriverMemory
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return def
}
