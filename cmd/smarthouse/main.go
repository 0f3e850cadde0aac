// Smart house engine.
//
// Without arguments (or with "serve") the binary runs the ingestion
// daemon: it opens and migrates the SQLite store, loads the house and
// accepts sensor readings and actuator commands over MQTT and Kafka
// until SIGINT or SIGTERM.
//
// The "report" command runs the analytics queries once against the
// configured store and prints the result as JSON:
//
//	smarthouse report temperature -room "Master Bedroom" -from 2024-01-26 -until 2024-01-28
//	smarthouse report humidity -room "Bathroom 1" -date 2024-01-27
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/r1nov8/ing301gruppeA2/migrations"

	"github.com/r1nov8/ing301gruppeA2/internal/house"
	"github.com/r1nov8/ing301gruppeA2/internal/infrastructure/config"
	"github.com/r1nov8/ing301gruppeA2/internal/infrastructure/database"
	"github.com/r1nov8/ing301gruppeA2/internal/infrastructure/influxdb"
	"github.com/r1nov8/ing301gruppeA2/internal/infrastructure/kafka"
	"github.com/r1nov8/ing301gruppeA2/internal/infrastructure/logging"
	"github.com/r1nov8/ing301gruppeA2/internal/infrastructure/mqtt"
	"github.com/r1nov8/ing301gruppeA2/internal/ingest"
)

// Version information, set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := dispatch(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// dispatch selects the command named by the first argument.
func dispatch(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return run(ctx)
	}
	switch args[0] {
	case "serve":
		return run(ctx)
	case "report":
		return report(ctx, args[1:], out)
	case "version":
		fmt.Fprintf(out, "smarthouse %s (commit %s, built %s)\n", version, commit, date)
		return nil
	default:
		return fmt.Errorf("unknown command %q (want serve, report or version)", args[0])
	}
}

// run is the daemon, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting smart house engine",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version).With("house_id", cfg.House.ID)
	log.Info("configuration loaded", "path", configPath, "level", cfg.Logging.Level)

	db, repo, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	h, err := repo.LoadHouse(ctx)
	if err != nil {
		return fmt.Errorf("loading house: %w", err)
	}
	log.Info("house loaded",
		"floors", len(h.Floors()),
		"rooms", len(h.Rooms()),
		"devices", len(h.Devices()),
	)

	opts := ingest.Options{House: h, Store: repo, Logger: log}

	mqttClient, err := connectMQTT(cfg, log)
	if err != nil {
		return err
	}
	if mqttClient != nil {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		opts.MQTT = mqttClient
	}

	influxClient, err := connectInfluxDB(cfg, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		opts.Mirror = influxClient
	}

	svc, err := ingest.New(opts)
	if err != nil {
		return fmt.Errorf("creating ingest service: %w", err)
	}
	defer svc.Stop()

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("starting ingest service: %w", err)
	}
	if mqttClient != nil {
		if err := svc.PublishActuatorStates(ctx); err != nil {
			log.Warn("publishing actuator states failed", "error", err)
		}
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
			if err := svc.PublishActuatorStates(ctx); err != nil {
				log.Warn("republishing actuator states failed", "error", err)
			}
		})
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	consumerErr, stopConsumer, err := startKafka(ctx, cfg, svc, log)
	if err != nil {
		return err
	}
	defer stopConsumer()

	log.Info("initialisation complete, waiting for shutdown signal")

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, cleaning up")
	case err := <-consumerErr:
		if err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
	}

	m := svc.GetMetrics()
	log.Info("smart house engine stopped",
		"measurements", m.MeasurementsStored,
		"commands", m.CommandsApplied,
		"rejected", m.Rejected,
	)
	return nil
}

// getConfigPath returns SMARTHOUSE_CONFIG if set, otherwise the default.
func getConfigPath() string {
	if path := os.Getenv("SMARTHOUSE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// openStore opens and migrates the database and builds the repository.
func openStore(ctx context.Context, cfg *config.Config, log *logging.Logger) (*database.DB, *house.SQLiteRepository, error) {
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	log.Info("database connected", "path", cfg.Database.Path)

	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // Already failing
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete")

	repo := house.NewSQLiteRepository(db)
	repo.SetLogger(log)
	return db, repo, nil
}

// connectMQTT returns nil when MQTT is disabled.
func connectMQTT(cfg *config.Config, log *logging.Logger) (*mqtt.Client, error) {
	if !cfg.MQTT.Enabled {
		log.Info("MQTT disabled")
		return nil, nil
	}

	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log)
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"topic_prefix", cfg.MQTT.TopicPrefix,
	)
	return client, nil
}

// connectInfluxDB returns nil when the mirror is disabled.
func connectInfluxDB(cfg *config.Config, log *logging.Logger) (*influxdb.Client, error) {
	client, err := influxdb.Connect(cfg.InfluxDB)
	if errors.Is(err, influxdb.ErrDisabled) {
		log.Info("InfluxDB disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected",
		"url", cfg.InfluxDB.URL,
		"org", cfg.InfluxDB.Org,
		"bucket", cfg.InfluxDB.Bucket,
	)
	return client, nil
}

// startKafka runs the measurement consumer in the background. The
// returned channel yields the consumer's exit error; stop cancels the
// consumer, waits for it and closes the reader. When Kafka is disabled
// the channel never fires and stop is a no-op.
func startKafka(ctx context.Context, cfg *config.Config, svc *ingest.Service, log *logging.Logger) (<-chan error, func(), error) {
	consumer, err := kafka.NewConsumer(cfg.Kafka)
	if errors.Is(err, kafka.ErrDisabled) {
		log.Info("Kafka disabled")
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("creating kafka consumer: %w", err)
	}
	consumer.SetLogger(log)

	runCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		errCh <- consumer.Run(runCtx, svc.HandleKafka)
	}()

	stop := func() {
		cancel()
		<-done
		if closeErr := consumer.Close(); closeErr != nil {
			log.Error("error closing kafka consumer", "error", closeErr)
		}
	}
	return errCh, stop, nil
}

// healthCheck verifies the connected infrastructure. Nil clients are
// disabled integrations and are skipped.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
