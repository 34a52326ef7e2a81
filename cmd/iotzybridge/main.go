// iotzy-bridge - camera-to-MQTT home automation bridge
//
// The bridge reads frames from a camera stream, derives scene brightness
// and human presence, drives a lamp through a hysteresis policy, and
// publishes readings to an MQTT broker. State and runtime settings are
// exposed over a small HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/iotzy/iotzy-bridge/migrations"

	"github.com/iotzy/iotzy-bridge/internal/api"
	"github.com/iotzy/iotzy-bridge/internal/events"
	"github.com/iotzy/iotzy-bridge/internal/infrastructure/config"
	"github.com/iotzy/iotzy-bridge/internal/infrastructure/database"
	"github.com/iotzy/iotzy-bridge/internal/infrastructure/influxdb"
	"github.com/iotzy/iotzy-bridge/internal/infrastructure/logging"
	"github.com/iotzy/iotzy-bridge/internal/infrastructure/mqtt"
	"github.com/iotzy/iotzy-bridge/internal/sensing"
	"github.com/iotzy/iotzy-bridge/internal/settings"
	"github.com/iotzy/iotzy-bridge/internal/state"
	"github.com/iotzy/iotzy-bridge/internal/vision"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting iotzy bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database and run migrations
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	eventRepo := events.NewRepository(db.DB)

	// Runtime settings (persisted JSON document, mutable via the API)
	settingsStore, err := settings.NewStore(cfg.Settings.Path)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	log.Info("settings loaded", "path", cfg.Settings.Path)

	stateStore := state.NewStore()

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Connect to the MQTT broker named in the settings snapshot.
	// Broker changes apply at the next process start.
	rt := settingsStore.Get()
	mqttClient, err := mqtt.Connect(mqtt.Options{
		Host:     rt.MQTTHost,
		Port:     rt.MQTTPort,
		TLS:      rt.MQTTUseTLS,
		Username: rt.MQTTUsername,
		Password: rt.MQTTPassword,
		ClientID: cfg.MQTT.ClientID,
		QoS:      cfg.MQTT.QoS,
	})
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT connected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", rt.MQTTHost, rt.MQTTPort),
		"client_id", cfg.MQTT.ClientID,
	)

	// Inbound temperature readings from the bus
	var telemetry sensing.TelemetryWriter
	if influxClient != nil {
		telemetry = influxClient
	}
	tempHandler := sensing.TemperatureHandler(stateStore, telemetry, log)
	if subErr := mqttClient.Subscribe(rt.Topics.Temperature, byte(cfg.MQTT.QoS), tempHandler); subErr != nil {
		log.Warn("temperature subscription failed", "topic", rt.Topics.Temperature, "error", subErr)
	}

	// Person detector and camera stream opener
	detector, err := vision.NewPigoDetector(cfg.Detector)
	if err != nil {
		return fmt.Errorf("loading detector: %w", err)
	}
	log.Info("detector loaded", "cascade", cfg.Detector.CascadePath)

	opener := vision.NewMJPEGOpener(cfg.Camera)

	// Sensing loop
	loop := sensing.NewLoop(sensing.Deps{
		Settings:  settingsStore,
		State:     stateStore,
		Open:      opener,
		Detector:  detector,
		Bus:       sensing.NewPublisher(mqttClient, byte(cfg.MQTT.QoS), log),
		Events:    eventRepo,
		Telemetry: telemetry,
		Log:       log,
	})
	loopDone := make(chan error, 1)
	go func() {
		loopDone <- loop.Run(ctx)
	}()
	log.Info("sensing loop started")

	// HTTP API
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Settings: settingsStore,
		State:    stateStore,
		Events:   eventRepo,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// The loop exits on the same context; wait so its source is released
	// before the deferred teardown runs.
	<-loopDone

	log.Info("iotzy bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses the IOTZY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("IOTZY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
