package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/song-league/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	CORSAllowedOrigins []string
	LogLevel           logging.Level

	// DBURL empty runs the service on in-memory repositories.
	DBURL                   string
	DBDisablePreparedBinary bool

	AuthBaseURL               string
	AuthIntrospectURL         string
	AuthAdminKey              string
	AuthTimeout               time.Duration
	AuthCircuitEnabled        bool
	AuthCircuitFailureCount   int
	AuthCircuitOpenTimeout    time.Duration
	AuthCircuitHalfOpenMaxReq int
	InternalJobToken          string

	SweepInterval time.Duration
	SweepWorkers  int

	RoundCASRetries     int
	RoundRollbackWindow time.Duration

	NotifyWebhookURL          string
	NotifyTimeout             time.Duration
	NotifyCircuitEnabled      bool
	NotifyCircuitFailureCount int
	NotifyCircuitOpenTimeout  time.Duration
	NotifyCircuitHalfOpenMax  int

	MediaBaseURL       string
	MediaSigningSecret string
	MediaURLTTL        time.Duration
	MediaCacheEnabled  bool
	MediaCacheTTL      time.Duration

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled     bool
	UptraceDSN         string
	UptraceLogsEnabled bool

	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := time.ParseDuration(getEnv("HTTP_READ_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("HTTP_WRITE_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_WRITE_TIMEOUT: %w", err)
	}

	dbDisablePrepared, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	authTimeout, err := time.ParseDuration(getEnv("AUTH_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse AUTH_TIMEOUT: %w", err)
	}
	authCircuitEnabled, err := strconv.ParseBool(getEnv("AUTH_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse AUTH_CIRCUIT_ENABLED: %w", err)
	}
	authCircuitFailures, err := getEnvAsInt("AUTH_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse AUTH_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if authCircuitFailures <= 0 {
		return Config{}, fmt.Errorf("AUTH_CIRCUIT_FAILURE_COUNT must be > 0")
	}
	authCircuitOpenTimeout, err := time.ParseDuration(getEnv("AUTH_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse AUTH_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	authCircuitHalfOpen, err := getEnvAsInt("AUTH_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse AUTH_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if authCircuitHalfOpen <= 0 {
		return Config{}, fmt.Errorf("AUTH_CIRCUIT_HALF_OPEN_MAX_REQ must be > 0")
	}

	sweepInterval, err := time.ParseDuration(getEnv("SWEEP_INTERVAL", "1m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWEEP_INTERVAL: %w", err)
	}
	if sweepInterval <= 0 {
		return Config{}, fmt.Errorf("SWEEP_INTERVAL must be > 0")
	}
	sweepWorkers, err := getEnvAsInt("SWEEP_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse SWEEP_WORKERS: %w", err)
	}
	if sweepWorkers <= 0 {
		return Config{}, fmt.Errorf("SWEEP_WORKERS must be > 0")
	}

	casRetries, err := getEnvAsInt("ROUND_CAS_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse ROUND_CAS_RETRIES: %w", err)
	}
	if casRetries <= 0 {
		return Config{}, fmt.Errorf("ROUND_CAS_RETRIES must be > 0")
	}
	rollbackWindow, err := time.ParseDuration(getEnv("ROUND_ROLLBACK_WINDOW", "24h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ROUND_ROLLBACK_WINDOW: %w", err)
	}
	if rollbackWindow <= 0 {
		return Config{}, fmt.Errorf("ROUND_ROLLBACK_WINDOW must be > 0")
	}

	notifyTimeout, err := time.ParseDuration(getEnv("NOTIFY_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFY_TIMEOUT: %w", err)
	}
	notifyCircuitEnabled, err := strconv.ParseBool(getEnv("NOTIFY_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFY_CIRCUIT_ENABLED: %w", err)
	}
	notifyCircuitFailures, err := getEnvAsInt("NOTIFY_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFY_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	notifyCircuitOpenTimeout, err := time.ParseDuration(getEnv("NOTIFY_CIRCUIT_OPEN_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFY_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	notifyCircuitHalfOpen, err := getEnvAsInt("NOTIFY_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFY_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}

	mediaURLTTL, err := time.ParseDuration(getEnv("MEDIA_URL_TTL", "15m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse MEDIA_URL_TTL: %w", err)
	}
	if mediaURLTTL <= 0 {
		return Config{}, fmt.Errorf("MEDIA_URL_TTL must be > 0")
	}
	mediaCacheEnabled, err := strconv.ParseBool(getEnv("MEDIA_CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse MEDIA_CACHE_ENABLED: %w", err)
	}
	mediaCacheTTL, err := time.ParseDuration(getEnv("MEDIA_CACHE_TTL", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse MEDIA_CACHE_TTL: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServer := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServer == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}

	serviceName := getEnv("SERVICE_NAME", "song-league")

	return Config{
		AppEnv:         appEnv,
		ServiceName:    serviceName,
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           parseLogLevel(getEnv("LOG_LEVEL", "info")),

		DBURL:                   strings.TrimSpace(getEnv("DB_URL", "")),
		DBDisablePreparedBinary: dbDisablePrepared,

		AuthBaseURL:               strings.TrimSpace(getEnv("AUTH_BASE_URL", "")),
		AuthIntrospectURL:         strings.TrimSpace(getEnv("AUTH_INTROSPECT_URL", "")),
		AuthAdminKey:              strings.TrimSpace(getEnv("AUTH_ADMIN_KEY", "")),
		AuthTimeout:               authTimeout,
		AuthCircuitEnabled:        authCircuitEnabled,
		AuthCircuitFailureCount:   authCircuitFailures,
		AuthCircuitOpenTimeout:    authCircuitOpenTimeout,
		AuthCircuitHalfOpenMaxReq: authCircuitHalfOpen,
		InternalJobToken:          strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),

		SweepInterval: sweepInterval,
		SweepWorkers:  sweepWorkers,

		RoundCASRetries:     casRetries,
		RoundRollbackWindow: rollbackWindow,

		NotifyWebhookURL:          strings.TrimSpace(getEnv("NOTIFY_WEBHOOK_URL", "")),
		NotifyTimeout:             notifyTimeout,
		NotifyCircuitEnabled:      notifyCircuitEnabled,
		NotifyCircuitFailureCount: notifyCircuitFailures,
		NotifyCircuitOpenTimeout:  notifyCircuitOpenTimeout,
		NotifyCircuitHalfOpenMax:  notifyCircuitHalfOpen,

		MediaBaseURL:       strings.TrimSpace(getEnv("MEDIA_BASE_URL", "")),
		MediaSigningSecret: strings.TrimSpace(getEnv("MEDIA_SIGNING_SECRET", "")),
		MediaURLTTL:        mediaURLTTL,
		MediaCacheEnabled:  mediaCacheEnabled,
		MediaCacheTTL:      mediaCacheTTL,

		PprofEnabled: pprofEnabled,
		PprofAddr:    getEnv("PPROF_ADDR", ":6060"),

		UptraceEnabled:     uptraceEnabled,
		UptraceDSN:         uptraceDSN,
		UptraceLogsEnabled: uptraceLogsEnabled,

		PyroscopeEnabled:       pyroscopeEnabled,
		PyroscopeServerAddress: pyroscopeServer,
		PyroscopeAppName:       getEnv("PYROSCOPE_APP_NAME", serviceName),
		PyroscopeAuthToken:     strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeUploadRate:    pyroscopeUploadRate,
	}, nil
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}
