//go:build linux

// Command sps30-monitor polls an SPS30 on a Linux I2C bus and exports the
// readings as Prometheus metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"sps30-go/bus"
	"sps30-go/drivers/sps30"
	"sps30-go/services/config"
	"sps30-go/services/logging"
	"sps30-go/services/metrics"
	sps30dev "sps30-go/services/sps30"
	"sps30-go/x/drvshim"
)

func main() {
	cfgPath := pflag.StringP("config", "c", os.Getenv("SPS30_CONFIG"), "config file (yaml, toml or json)")
	infoOnly := pflag.Bool("info", false, "print device information and exit")
	sleep := pflag.Bool("sleep-on-exit", true, "put the sensor to sleep on shutdown")
	pflag.Parse()

	cfg, code := loadConfig(*cfgPath, os.Stderr)
	if cfg == nil {
		os.Exit(code)
	}

	logger := logging.New(cfg.Logging)
	defer func() { _ = logger.Sync() }()
	log := logger.With(zap.Int("bus", cfg.I2C.Bus), zap.Uint16("addr", cfg.I2C.Address))

	drvCfg, _ := cfg.Driver() // validated by Load
	i2c, closeBus, err := drvshim.OpenEmbd(byte(cfg.I2C.Bus))
	if err != nil {
		log.Fatal("open i2c bus", zap.Error(err))
	}
	defer func() {
		if err := closeBus(); err != nil {
			log.Warn("close i2c bus", zap.Error(err))
		}
	}()

	reg := metrics.NewRegistry()
	sm := metrics.NewSensorMetrics(reg)

	b := bus.NewBus(16)
	topics := sps30dev.NewTopicSink(b.NewConnection("sps30"), "i2c-"+strconv.Itoa(cfg.I2C.Bus))

	dev := sps30.New(i2c, drvCfg)
	mon := sps30dev.New(dev, sps30dev.Options{
		PollInterval:      cfg.Sensor.PollInterval,
		AutoCleanInterval: cfg.Sensor.AutoCleanInterval,
		StatusEvery:       cfg.Sensor.StatusEvery,
		SleepOnExit:       *sleep,
	}, log, sps30dev.Sinks{sm, topics})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flags := b.NewConnection("log")
	defer flags.Disconnect()
	go logStatusChanges(log, flags.Subscribe(topics.Topic(sps30dev.TopicStatus)))

	if err := mon.Wake(); err != nil {
		log.Error("wake-up", zap.Error(err))
	}
	info, err := mon.Info(ctx)
	if err != nil {
		log.Warn("device info incomplete", zap.Error(err))
	}
	log.Info("sps30",
		zap.Stringer("firmware", info.Firmware),
		zap.String("product", info.ProductType),
		zap.String("serial", info.SerialNumber),
		zap.Uint32("auto_clean_s", info.AutoCleanInterval),
		zap.Any("status", info.Status.Map()))
	if *infoOnly {
		return
	}

	var srv *http.Server
	if cfg.Metrics.Enable {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler(reg))
		srv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server", zap.Error(err))
			}
		}()
		log.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr), zap.String("path", cfg.Metrics.Path))
	}

	if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("monitor stopped", zap.Error(err))
	}

	if srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}
}

// loadConfig reports a load failure on stderr, since no logger exists yet,
// and returns the exit code.
func loadConfig(path string, stderr io.Writer) (*config.Config, int) {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(stderr, "sps30-monitor:", err)
		return nil, 1
	}
	return cfg, 0
}

// logStatusChanges logs the status register whenever its flags change.
func logStatusChanges(log *zap.Logger, sub *bus.Subscription) {
	var last sps30.StatusFlags
	for msg := range sub.Channel() {
		st, ok := msg.Payload.(sps30.StatusFlags)
		if !ok || st == last {
			continue
		}
		last = st
		log.Info("status flags changed", zap.String("topic", msg.Topic.String()), zap.Any("flags", st.Map()))
	}
}
