// RadioMesh - lightweight pub/sub over connectionless broadcast radio
//
// This is the main entry point for the RadioMesh node daemon. A node
// joins a shared radio channel, exchanges topic-addressed broadcast
// frames with its peers, and optionally:
//   - bridges mesh traffic to and from an MQTT broker
//   - journals message traffic to SQLite for diagnostics
//   - reports counters and status changes to InfluxDB
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/radiomesh/internal/bridge"
	"github.com/nerrad567/radiomesh/internal/infrastructure/config"
	"github.com/nerrad567/radiomesh/internal/infrastructure/database"
	"github.com/nerrad567/radiomesh/internal/infrastructure/logging"
	"github.com/nerrad567/radiomesh/internal/journal"
	"github.com/nerrad567/radiomesh/internal/pubsub"
	"github.com/nerrad567/radiomesh/internal/telemetry"
	"github.com/nerrad567/radiomesh/internal/transport/udpradio"
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

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
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
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting RadioMesh",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
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

	// Open the message journal (optional)
	var db *database.DB
	var msgJournal *journal.Journal
	if cfg.Journal.Enabled {
		db, err = database.Open(database.Config{
			Path:        cfg.Journal.Path,
			WALMode:     cfg.Journal.WALMode,
			BusyTimeout: cfg.Journal.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening journal database: %w", err)
		}
		defer func() {
			log.Info("closing journal database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing journal database", "error", closeErr)
			}
		}()

		msgJournal, err = journal.New(db, cfg.Journal.Retain)
		if err != nil {
			return fmt.Errorf("initialising journal: %w", err)
		}
		log.Info("journal enabled", "path", cfg.Journal.Path, "retain", cfg.Journal.Retain)
	} else {
		log.Info("journal disabled")
	}

	// Connect to InfluxDB telemetry (optional)
	var telemetryClient *telemetry.Client
	if cfg.Telemetry.Enabled {
		telemetryClient, err = telemetry.Connect(cfg.Telemetry, cfg.Node.ID)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing telemetry connection")
			if closeErr := telemetryClient.Close(); closeErr != nil {
				log.Error("error closing telemetry", "error", closeErr)
			}
		}()
		telemetryClient.SetOnError(func(err error) {
			log.Error("telemetry write error", "error", err)
		})
		log.Info("telemetry connected",
			"url", cfg.Telemetry.URL,
			"org", cfg.Telemetry.Org,
			"bucket", cfg.Telemetry.Bucket,
		)
	} else {
		log.Info("telemetry disabled")
	}

	// Create the radio transport
	radio, err := udpradio.New(udpradio.Config{
		PortBase:      cfg.Transport.PortBase,
		BroadcastAddr: cfg.Transport.BroadcastAddr,
	})
	if err != nil {
		return fmt.Errorf("creating radio: %w", err)
	}
	radio.SetLogger(log)

	// Create the pub/sub node
	node, err := pubsub.New(pubsub.Config{
		Channel:    cfg.Node.Channel,
		Standalone: cfg.Node.Standalone,
		SendRepeat: cfg.Node.SendRepeat,
	}, radio, radio)
	if err != nil {
		return fmt.Errorf("creating node: %w", err)
	}
	node.SetLogger(log)
	if msgJournal != nil {
		node.SetJournal(msgJournal)
	}
	if telemetryClient != nil {
		node.SetTelemetrySink(telemetryClient)
	}

	// Register configured subscriptions. Handlers just log; the bridge
	// (below) is what makes mesh traffic actionable.
	for _, pattern := range cfg.Node.Subscriptions {
		node.Subscribe(pattern, func(topic string, payload []byte) {
			log.Info("mesh message received",
				"topic", topic,
				"bytes", len(payload),
			)
		})
	}
	log.Info("subscriptions registered", "count", len(cfg.Node.Subscriptions))

	// Connect the MQTT bridge (optional). The mesh handler must be
	// registered before Setup so the binding sequence sees it.
	var meshBridge *bridge.Bridge
	if cfg.Bridge.Enabled {
		bridgeClient, connErr := bridge.Connect(cfg.Bridge, cfg.Node.ID)
		if connErr != nil {
			return fmt.Errorf("connecting to MQTT broker: %w", connErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT broker")
			if closeErr := bridgeClient.Close(); closeErr != nil {
				log.Error("error closing MQTT bridge", "error", closeErr)
			}
		}()
		bridgeClient.SetLogger(log)
		bridgeClient.SetOnConnect(func() {
			log.Info("MQTT broker reconnected")
		})
		bridgeClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT broker disconnected", "error", err)
		})
		log.Info("MQTT broker connected",
			"broker", fmt.Sprintf("%s:%d", cfg.Bridge.Broker.Host, cfg.Bridge.Broker.Port),
			"prefix", cfg.Bridge.TopicPrefix,
		)

		meshBridge = bridge.New(bridgeClient, node, cfg.Bridge.TopicPrefix, byte(cfg.Bridge.QoS))
		meshBridge.SetBridgeLogger(log)
		node.Subscribe("#", meshBridge.MeshHandler())
	} else {
		log.Info("MQTT bridge disabled")
	}

	// Bring the transport up and bind to the channel
	if err := node.Setup(); err != nil {
		return fmt.Errorf("node setup: %w", err)
	}
	diag := node.Describe()
	log.Info("node ready",
		"node_id", cfg.Node.ID,
		"address", diag.MACAddress,
		"channel", diag.ConfiguredChannel,
		"state", string(diag.State),
		"standalone", cfg.Node.Standalone,
	)

	// Start relaying broker -> mesh once the node is bound
	if meshBridge != nil {
		if err := meshBridge.Start(); err != nil {
			return fmt.Errorf("starting bridge: %w", err)
		}
		log.Info("MQTT bridge started")
	}

	log.Info("initialisation complete, entering processing loop")

	// Processing loop: dispatch queued messages when the receive context
	// signals and on a periodic tick as a safety net.
	ticker := time.NewTicker(cfg.GetTickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received, cleaning up")
			// Deferred Close() calls run in reverse order:
			// MQTT bridge, telemetry, journal database.
			log.Info("RadioMesh stopped")
			return nil
		case <-node.Wake():
		case <-ticker.C:
		}

		for node.Tick() {
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses RADIOMESH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("RADIOMESH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
