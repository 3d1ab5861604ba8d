package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"registry-gateway/registry"
	"registry-gateway/registry/domain"

	"github.com/joho/godotenv"
)

type config struct {
	registryURL     string
	registryToken   string
	timeUnit        domain.TimeUnit
	requestLimit    int
	httpTimeout     time.Duration
	maxInFlight     int
	inFlightTimeout time.Duration
	slowWait        time.Duration

	logLevel  string
	logFormat string

	statsBackend       string
	statsRedisAddr     string
	statsRedisPassword string
	statsRedisDB       int
	statsPrefix        string
	statsTTL           time.Duration

	metricsAddr string
}

func (c config) window() time.Duration { return c.timeUnit.Duration() }

// readConfig lê o ambiente; um .env no diretório corrente é carregado antes,
// sem sobrescrever variáveis já definidas.
func readConfig() (config, error) {
	_ = godotenv.Load()

	var errs []error
	intEnv := func(k string, def int) int {
		v, err := getenvIntDefault(k, def)
		errs = append(errs, err)
		return v
	}
	durationEnv := func(k string, def time.Duration) time.Duration {
		v, err := getenvDurationDefault(k, def)
		errs = append(errs, err)
		return v
	}

	cfg := config{}
	cfg.registryURL = getenvDefault("REGISTRY_URL", registry.DefaultEndpoint)
	cfg.registryToken = strings.TrimSpace(os.Getenv("REGISTRY_TOKEN"))
	cfg.requestLimit = intEnv("RATE_REQUEST_LIMIT", 10)
	cfg.httpTimeout = durationEnv("HTTP_TIMEOUT", 30*time.Second)
	cfg.maxInFlight = intEnv("MAX_IN_FLIGHT", 0)
	cfg.inFlightTimeout = durationEnv("IN_FLIGHT_TIMEOUT", 0)
	cfg.slowWait = durationEnv("SLOW_WAIT", 2*time.Second)

	cfg.logLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.logFormat = getenvDefault("LOG_FORMAT", "json")

	cfg.statsBackend = strings.ToLower(getenvDefault("STATS_BACKEND", "none"))
	cfg.statsRedisAddr = os.Getenv("STATS_REDIS_ADDR")
	cfg.statsRedisPassword = os.Getenv("STATS_REDIS_PASSWORD")
	cfg.statsRedisDB = intEnv("STATS_REDIS_DB", 0)
	cfg.statsPrefix = getenvDefault("STATS_PREFIX", "registry:stats")
	cfg.statsTTL = durationEnv("STATS_TTL", 24*time.Hour)

	cfg.metricsAddr = os.Getenv("METRICS_ADDR")

	if err := errors.Join(errs...); err != nil {
		return config{}, err
	}

	unit, err := domain.ParseTimeUnit(getenvDefault("RATE_TIME_UNIT", string(domain.Seconds)))
	if err != nil {
		return config{}, fmt.Errorf("RATE_TIME_UNIT: %w", err)
	}
	cfg.timeUnit = unit

	if cfg.registryToken == "" {
		return config{}, fmt.Errorf("%w: REGISTRY_TOKEN is required", domain.ErrConfiguration)
	}
	if cfg.requestLimit <= 0 {
		return config{}, fmt.Errorf("%w: RATE_REQUEST_LIMIT must be > 0", domain.ErrConfiguration)
	}
	if cfg.maxInFlight < 0 {
		return config{}, fmt.Errorf("%w: MAX_IN_FLIGHT must be >= 0", domain.ErrConfiguration)
	}
	switch cfg.statsBackend {
	case "none", "memory", "prometheus":
	case "redis":
		if strings.TrimSpace(cfg.statsRedisAddr) == "" {
			return config{}, fmt.Errorf("%w: STATS_REDIS_ADDR is required when STATS_BACKEND=redis", domain.ErrConfiguration)
		}
	default:
		return config{}, fmt.Errorf("%w: STATS_BACKEND must be one of none, memory, redis, prometheus; got %q", domain.ErrConfiguration, cfg.statsBackend)
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getenvIntDefault devolve def quando a variável não está definida e erro
// quando está definida mas não é um inteiro.
func getenvIntDefault(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%w: %s=%q is not an integer", domain.ErrConfiguration, k, v)
	}
	return i, nil
}

// getenvDurationDefault exige unidade (ex: "30s"); um número puro é erro.
func getenvDurationDefault(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%w: %s=%q is not a duration", domain.ErrConfiguration, k, v)
	}
	return d, nil
}
