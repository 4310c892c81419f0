// GymLink Relay - multi-tenant websocket relay for gym hardware.
//
// This is the main entry point for the GymLink relay. The relay sits between
// on-premises hardware bridges and cloud dashboards, forwarding commands and
// hardware events within each gym's isolated group while persisting events
// to the cloud and a local audit trail.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/gymlink/gymlink-relay/migrations"

	"github.com/gymlink/gymlink-relay/internal/api"
	"github.com/gymlink/gymlink-relay/internal/event"
	"github.com/gymlink/gymlink-relay/internal/infrastructure/config"
	"github.com/gymlink/gymlink-relay/internal/infrastructure/database"
	"github.com/gymlink/gymlink-relay/internal/infrastructure/influxdb"
	"github.com/gymlink/gymlink-relay/internal/infrastructure/logging"
	"github.com/gymlink/gymlink-relay/internal/infrastructure/mqtt"
	"github.com/gymlink/gymlink-relay/internal/relay"
	"github.com/gymlink/gymlink-relay/internal/webhook"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// pruneInterval is how often the audit retention loop runs.
const pruneInterval = 24 * time.Hour

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit // linear wiring of every subsystem
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting GymLink relay",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration. A missing admin secret fails validation here,
	// which is deliberate: a relay that can admit nobody should not start.
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// A missing webhook secret is survivable (the cloud endpoint will
	// reject persistence attempts) so it only warns, unlike the admin secret.
	if cfg.Webhook.Secret == "" {
		log.Warn("webhook secret is not set; cloud persistence will be rejected by the endpoint",
			"url", cfg.Webhook.URL)
	}

	// Open the audit database
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
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	eventRepo := event.NewSQLiteRepository(db.DB)

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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Connect to the MQTT fan-out broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT fan-out connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT fan-out disabled")
	}

	// Persistence gateway: webhook client behind a draining worker pool
	webhookClient := webhook.NewClient(cfg.Webhook, log.With("component", "webhook"))
	gateway := webhook.NewGateway(webhookClient, cfg.Webhook.Workers, cfg.Webhook.QueueSize,
		log.With("component", "webhook"))
	defer func() {
		// Sampled before the drain; the InfluxDB client closes (and flushes)
		// after this defer runs.
		if influxClient != nil {
			influxClient.WritePoint("relay_shutdown",
				map[string]string{"component": "webhook"},
				map[string]interface{}{"queue_depth": gateway.QueueDepth()})
		}
		log.Info("draining persistence gateway", "queued", gateway.QueueDepth())
		gateway.Close()
	}()

	// Relay hub with its detached consumers. Optional integrations are
	// passed as nil interfaces when disabled.
	hubDeps := relay.HubDeps{
		Logger:   log.With("component", "relay"),
		Sink:     gateway,
		Recorder: eventRepo,
	}
	if mqttClient != nil {
		hubDeps.Fanout = mqttClient
	}
	if influxClient != nil {
		hubDeps.Telemetry = influxClient
	}
	hub := relay.NewHub(hubDeps)

	// HTTP gateway
	server, err := api.New(api.Deps{
		Config:  cfg.Server,
		WS:      cfg.WebSocket,
		Logger:  log.With("component", "api"),
		Hub:     hub,
		Auth:    relay.NewAuthenticator(cfg.Auth.AdminSecret),
		Events:  eventRepo,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating relay server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting relay server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing relay server", "error", closeErr)
		}
	}()
	log.Info("relay server started",
		"address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		"ws_path", cfg.WebSocket.Path,
	)

	// Audit retention loop
	if cfg.Database.RetentionDays > 0 {
		go pruneLoop(ctx, eventRepo, cfg.Database.RetentionDays, log)
	}

	// Verify infrastructure is healthy before declaring readiness
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. Relay server (stops accepting connections, closes clients)
	// 2. Persistence gateway (drains queued events)
	// 3. MQTT (if enabled)
	// 4. InfluxDB (if enabled)
	// 5. Database

	log.Info("GymLink relay stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GYMLINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GYMLINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// pruneLoop removes audited events older than the retention window once a
// day. Failures are logged and retried on the next tick.
func pruneLoop(ctx context.Context, repo event.Repository, retentionDays int, log *logging.Logger) {
	retention := time.Duration(retentionDays) * 24 * time.Hour
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := repo.Prune(ctx, retention)
			if err != nil {
				log.Error("audit retention prune failed", "error", err)
				continue
			}
			if deleted > 0 {
				log.Info("audit retention prune complete", "deleted", deleted, "retention_days", retentionDays)
			}
		}
	}
}

// healthCheck verifies infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
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
