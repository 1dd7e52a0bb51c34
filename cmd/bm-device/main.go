package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"babymonitor/internal/device"
	"babymonitor/internal/shared"

	"github.com/lmittmann/tint"
)

func main() {
	configPath := flag.String("config", "./device.yaml", "path to device config yaml")
	probeOnly := flag.Bool("probe", false, "print the probe and current reading, then exit")
	flag.Parse()

	log := slog.New(tint.NewHandler(os.Stderr, nil))

	cfg, err := shared.LoadDeviceConfig(*configPath)
	if err != nil {
		log.Error("load config", "path", *configPath, "err", err)
		os.Exit(1)
	}

	d := device.New(cfg)
	defer d.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	probe, err := d.Probe(ctx)
	if err != nil {
		log.Error("server unreachable", "url", cfg.ServerURL, "err", err)
		os.Exit(1)
	}
	log.Info("server online", "message", probe.Message, "api_key", probe.ServerInfo.APIKey, "device_id", probe.ServerInfo.DeviceID)

	if *probeOnly {
		reading, err := d.FetchReading(ctx)
		if err != nil {
			log.Error("fetch reading", "err", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(probe)
		_ = enc.Encode(reading)
		return
	}

	sensor := device.NewSensor(time.Now().UnixNano())
	ticker := time.NewTicker(time.Duration(cfg.IntervalSeconds) * time.Second)
	defer ticker.Stop()

	log.Info("reporting", "transport", cfg.Transport, "interval_s", cfg.IntervalSeconds, "fields", cfg.FieldStyle)
	for {
		select {
		case <-ctx.Done():
			log.Info("stopping")
			return
		case <-ticker.C:
			s := sensor.Next()
			if err := d.Send(ctx, s); err != nil {
				log.Warn("send sample", "err", err)
				continue
			}
			log.Debug("sample sent", "temperature", s.Temperature, "humidity", s.Humidity, "sound", s.Sound)
		}
	}
}
