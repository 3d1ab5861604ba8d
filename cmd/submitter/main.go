// Command submitter envia comandos de criação de documento ao registro,
// um JSON por linha, sem passar de RATE_REQUEST_LIMIT chamadas por RATE_TIME_UNIT.
//
// Uso:
//
//	REGISTRY_TOKEN=... submitter commands.jsonl
//	cat commands.jsonl | REGISTRY_TOKEN=... submitter --workers 8
//
// Cada linha de saída é {"line":N,"value":"<uuid>"} ou {"line":N,"error":"..."}.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"registry-gateway/registry"
	"registry-gateway/registry/domain"
	"registry-gateway/registry/infra"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type cli struct {
	Input   string `arg:"" optional:"" default:"-" help:"JSON lines file with commands ('-' reads stdin)."`
	Workers int    `short:"w" default:"4" help:"Concurrent submitters."`
}

func main() {
	var args cli
	kong.Parse(&args,
		kong.Name("submitter"),
		kong.Description("Submit create-document commands to the registry under a fixed-window rate limit."),
	)

	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := newLogger(cfg.logLevel, cfg.logFormat, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, args, cfg, logger, os.Stdout); err != nil {
		logger.WithError(err).Fatal("submitter failed")
	}
}

func run(ctx context.Context, args cli, cfg config, logger *logrus.Logger, out io.Writer) error {
	in, closeInput, err := openInput(args.Input)
	if err != nil {
		return err
	}
	defer closeInput()

	gate, err := infra.NewWindowGate(cfg.requestLimit, cfg.window(), infra.WithGateLogger(logger))
	if err != nil {
		return err
	}
	defer gate.Close()
	// no sinal, quem estiver bloqueado no portão sai com ErrShutdown
	stop := context.AfterFunc(ctx, func() { _ = gate.Close() })
	defer stop()

	reg := prometheus.NewRegistry()
	if err := infra.RegisterGateGauges(reg, gate); err != nil {
		return err
	}

	totals := infra.NewMemoryStatsStore()
	backend, closeBackend, err := buildStatsBackend(ctx, cfg, reg)
	if err != nil {
		return err
	}
	defer closeBackend()

	if cfg.metricsAddr != "" {
		srv := startMetricsServer(cfg.metricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	client, err := registry.New(gate, cfg.registryToken,
		registry.WithEndpoint(cfg.registryURL),
		registry.WithHTTPClient(&http.Client{Timeout: cfg.httpTimeout}),
		registry.WithStats(infra.MultiStatsStore{totals, backend}),
		registry.WithLogger(logger),
		registry.WithSlowWait(cfg.slowWait),
		registry.WithMaxInFlight(cfg.maxInFlight, cfg.inFlightTimeout),
	)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"endpoint":    cfg.registryURL,
		"limit":       cfg.requestLimit,
		"window":      cfg.window().String(),
		"workers":     args.Workers,
		"maxInFlight": cfg.maxInFlight,
		"stats":       cfg.statsBackend,
	}).Info("submitter starting")

	sum, err := submitAll(ctx, client, in, args.Workers, out, logger)

	t := totals.Total()
	logger.WithFields(logrus.Fields{
		"read":      sum.Read,
		"created":   sum.Created,
		"failed":    sum.Failed,
		"skipped":   sum.Skipped,
		"admitted":  t.Admitted,
		"totalWait": t.TotalWait.String(),
	}).Info("submitter finished")
	return err
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// buildStatsBackend devolve o store escolhido em STATS_BACKEND (nil para none/memory).
func buildStatsBackend(ctx context.Context, cfg config, reg prometheus.Registerer) (domain.StatsStore, func(), error) {
	noop := func() {}
	switch cfg.statsBackend {
	case "prometheus":
		s, err := infra.NewPrometheusStatsStore(reg)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.statsRedisAddr,
			Password: cfg.statsRedisPassword,
			DB:       cfg.statsRedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("redis stats ping error: %w", err)
		}
		s := infra.NewRedisStatsStore(rdb,
			infra.WithStatsPrefix(cfg.statsPrefix),
			infra.WithStatsTTL(cfg.statsTTL),
		)
		return s, func() { _ = rdb.Close() }, nil
	default:
		return nil, noop, nil
	}
}

func startMetricsServer(addr string, reg *prometheus.Registry, logger *logrus.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.WithField("addr", addr).Info("metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics server error")
		}
	}()
	return srv
}
