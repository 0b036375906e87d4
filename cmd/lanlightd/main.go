package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/wheelibin/lanlight/internal/ambient"
	"github.com/wheelibin/lanlight/internal/config"
	"github.com/wheelibin/lanlight/internal/device"
	"github.com/wheelibin/lanlight/internal/discovery"
	"github.com/wheelibin/lanlight/internal/logging"
	"github.com/wheelibin/lanlight/internal/metrics"
	"github.com/wheelibin/lanlight/internal/schedule"
	"golang.org/x/sync/errgroup"
)

func main() {
	flags := pflag.NewFlagSet("lanlightd", pflag.ExitOnError)
	configFile := flags.StringP("config", "c", "", "config file (default: config.json in /etc/lanlight, ~/.config/lanlight or .)")
	flags.Bool("discover", false, "find the device ip from its UDP announcements")
	flags.Duration("interval", 0, "time between colour updates")
	flags.Bool("vivid", false, "boost saturation and value of every colour")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-file", "", "log to a rotated file instead of stderr")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configFile, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging, "lanlightd")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Info("lanlightd starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error(err)
		stop()
		os.Exit(1)
	}
	logger.Info("lanlightd is closing")
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config) error {
	reg := metrics.NewRegistry()
	deviceMetrics := metrics.NewDeviceMetrics(reg)
	discoveryMetrics := metrics.NewDiscoveryMetrics(reg)
	ambientMetrics := metrics.NewAmbientMetrics(reg)

	source, err := schedule.NewScheduleService(logger, cfg.Ambient.Pattern, cfg.Ambient.GeoLocation)
	if err != nil {
		return fmt.Errorf("invalid ambient pattern: %w", err)
	}

	// create/wire up services
	clientOpts := append(cfg.ClientOptions(), device.WithObserver(deviceMetrics))
	var client *device.Client
	if cfg.Discovery.Enabled || cfg.Device.IP == "" {
		d := discovery.NewDiscoverer(logger,
			discovery.WithPorts(cfg.Discovery.Ports...),
			discovery.WithDeadline(cfg.Discovery.Deadline),
			discovery.WithReceiveTimeout(cfg.Discovery.ReceiveTimeout),
			discovery.WithObserver(discoveryMetrics),
			discovery.WithClientOptions(clientOpts...),
		)
		client, err = d.Find(ctx, cfg.Device.ID, cfg.Device.LocalKey)
	} else {
		client, err = device.NewClient(logger, cfg.Device.Identity(), clientOpts...)
	}
	if err != nil {
		return err
	}

	loop := ambient.NewAmbient(logger, client, source,
		ambient.WithInterval(cfg.Ambient.Interval),
		ambient.WithVivid(cfg.Ambient.Vivid),
		ambient.WithRestoreBrightness(cfg.Ambient.RestoreBrightness),
		ambient.WithObserver(ambientMetrics),
	)

	g, gctx := errgroup.WithContext(ctx)

	// start the colour update loop
	g.Go(func() error {
		return loop.Run(gctx)
	})

	if cfg.Metrics.Enable {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler(reg))
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			logger.Info("Serving metrics", "addr", cfg.Metrics.Addr, "path", cfg.Metrics.Path)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}
