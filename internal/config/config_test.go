package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected default http addr: %q", cfg.HTTPAddr)
	}
	if cfg.SweepInterval != time.Minute {
		t.Fatalf("unexpected default sweep interval: %s", cfg.SweepInterval)
	}
	if cfg.SweepWorkers != 4 {
		t.Fatalf("unexpected default sweep workers: %d", cfg.SweepWorkers)
	}
	if cfg.RoundCASRetries != 3 {
		t.Fatalf("unexpected default cas retries: %d", cfg.RoundCASRetries)
	}
	if cfg.RoundRollbackWindow != 24*time.Hour {
		t.Fatalf("unexpected default rollback window: %s", cfg.RoundRollbackWindow)
	}
	if cfg.DBURL != "" {
		t.Fatalf("expected empty DB_URL by default, got %q", cfg.DBURL)
	}
	if cfg.MediaURLTTL != 15*time.Minute {
		t.Fatalf("unexpected default media url ttl: %s", cfg.MediaURLTTL)
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("SERVICE_NAME", "song-league-api-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "song-league-api-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[0] != "https://a.example.com" {
			t.Fatalf("unexpected first CORS origin: %s", cfg.CORSAllowedOrigins[0])
		}
		if cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
			t.Fatalf("unexpected second CORS origin: %s", cfg.CORSAllowedOrigins[1])
		}
	})
}

func TestLoad_DBDisablePreparedBinaryResultParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("default false", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.DBDisablePreparedBinary {
			t.Fatalf("expected DBDisablePreparedBinary=false by default")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "not-bool")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid DB_DISABLE_PREPARED_BINARY_RESULT")
		}
	})
}

func TestLoad_SweepConfigValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("invalid interval", func(t *testing.T) {
		t.Setenv("SWEEP_INTERVAL", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid SWEEP_INTERVAL")
		}
	})

	t.Run("non positive workers", func(t *testing.T) {
		t.Setenv("SWEEP_WORKERS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for SWEEP_WORKERS=0")
		}
	})

	t.Run("custom values", func(t *testing.T) {
		t.Setenv("SWEEP_INTERVAL", "30s")
		t.Setenv("SWEEP_WORKERS", "8")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SweepInterval != 30*time.Second {
			t.Fatalf("unexpected sweep interval: %s", cfg.SweepInterval)
		}
		if cfg.SweepWorkers != 8 {
			t.Fatalf("unexpected sweep workers: %d", cfg.SweepWorkers)
		}
	})
}

func TestLoad_RoundConfigValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("non positive cas retries", func(t *testing.T) {
		t.Setenv("ROUND_CAS_RETRIES", "-1")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for ROUND_CAS_RETRIES=-1")
		}
	})

	t.Run("custom rollback window", func(t *testing.T) {
		t.Setenv("ROUND_ROLLBACK_WINDOW", "12h")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.RoundRollbackWindow != 12*time.Hour {
			t.Fatalf("unexpected rollback window: %s", cfg.RoundRollbackWindow)
		}
	})
}

func TestLoad_NotifyConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("NOTIFY_WEBHOOK_URL", "https://hooks.example.com/song-league")
	t.Setenv("NOTIFY_TIMEOUT", "3s")
	t.Setenv("NOTIFY_CIRCUIT_FAILURE_COUNT", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.NotifyWebhookURL != "https://hooks.example.com/song-league" {
		t.Fatalf("unexpected notify webhook url: %q", cfg.NotifyWebhookURL)
	}
	if cfg.NotifyTimeout != 3*time.Second {
		t.Fatalf("unexpected notify timeout: %s", cfg.NotifyTimeout)
	}
	if cfg.NotifyCircuitFailureCount != 7 {
		t.Fatalf("unexpected notify circuit failure count: %d", cfg.NotifyCircuitFailureCount)
	}
}

func TestLoad_AuthCircuitValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("AUTH_CIRCUIT_FAILURE_COUNT", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for AUTH_CIRCUIT_FAILURE_COUNT=0")
	}
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}
