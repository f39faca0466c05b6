package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"netwatch/internal/config"
	"netwatch/internal/gateway"
	"netwatch/internal/history"
	"netwatch/internal/mail"
	"netwatch/internal/metrics"
	"netwatch/internal/monitor"
	"netwatch/internal/notify"
	"netwatch/internal/probe"
	"netwatch/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to configuration file (YAML)")
		addr       = flag.String("addr", ":8080", "address for the status API server")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logger := newLogger(*debug)
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("load timezone", zap.Error(err))
	}

	logger.Info("netwatch starting",
		zap.Duration("interval", cfg.Interval()),
		zap.Int("fail_threshold", cfg.FailThreshold),
		zap.Int("ok_threshold", cfg.OKThreshold),
		zap.String("public_targets", strings.Join(cfg.PublicTargets, ",")),
		zap.String("wan_host", cfg.WANHost),
		zap.Bool("mail_enabled", len(cfg.MailTo) > 0))

	clk := clock.New()

	locator := gateway.NewLocator(cfg.RediscoverEvery(), clk, logger.Named("gateway"))
	locator.Resolve() // log the gateway (or its absence) before the first round

	var mailer notify.Mailer
	if len(cfg.MailTo) > 0 {
		sender, err := mail.NewSender(mail.Options{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.MailFrom,
			To:       cfg.MailTo,
		})
		if err != nil {
			logger.Fatal("smtp transport", zap.Error(err))
		}
		mailer = sender
	} else {
		logger.Warn("mail_to not set, notifications disabled")
	}

	notifier := notify.New(mailer, logger.Named("notify"), notify.Options{
		Retries:      cfg.MailRetries,
		Backoff:      notify.ConstantBackoff(cfg.MailRetryBackoff()),
		NotifyOnDown: cfg.NotifyOnDown,
		Location:     loc,
		Clock:        clk,
		Context: notify.MessageContext{
			PublicTargets: cfg.PublicTargets,
			WANHost:       cfg.WANHost,
			FailThreshold: cfg.FailThreshold,
			OKThreshold:   cfg.OKThreshold,
			Interval:      cfg.Interval(),
		},
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := metrics.NewCollector(registry)
	if err != nil {
		logger.Fatal("register metrics", zap.Error(err))
	}

	prober := probe.NewPinger(cfg.ProbeTimeout(), cfg.PrivilegedICMP)
	recorder := history.NewRecorder(0, 0)
	sampler := monitor.NewSampler(prober, locator, cfg.Publics(), cfg.WANHost)
	machine := monitor.NewStateMachine(cfg.FailThreshold, cfg.OKThreshold)

	mon := monitor.New(cfg.Interval(), sampler, machine, notifier, recorder, collector, clk, logger.Named("monitor"))
	mon.Start()
	defer mon.Stop()

	srv := server.New(*addr, mon, recorder, registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("status API listening", zap.String("addr", *addr))
	if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("netwatch stopped")
}

func newLogger(debug bool) *zap.Logger {
	if debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return logger
}
