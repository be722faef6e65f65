// Gray Logic switchd - flow-table controller for OpenFlow-style switches.
//
// switchd keeps one session per configured switch, correlates every
// group, flow and meter modification with the switch's reply, and keeps
// a per-device registry and state mirror in step with the outcomes.
// Switch traffic is carried over MQTT; operators drive it over the REST
// API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/gray-logic-switchd/internal/api"
	"github.com/nerrad567/gray-logic-switchd/internal/audit"
	"github.com/nerrad567/gray-logic-switchd/internal/auth"
	"github.com/nerrad567/gray-logic-switchd/internal/convertor"
	"github.com/nerrad567/gray-logic-switchd/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-switchd/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-switchd/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-switchd/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-switchd/internal/infrastructure/metrics"
	"github.com/nerrad567/gray-logic-switchd/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-switchd/internal/mirror"
	"github.com/nerrad567/gray-logic-switchd/internal/openflow"
	"github.com/nerrad567/gray-logic-switchd/internal/service"
	"github.com/nerrad567/gray-logic-switchd/internal/session"
	"github.com/nerrad567/gray-logic-switchd/internal/transport"
	"github.com/nerrad567/gray-logic-switchd/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

// errShutdown is the disconnect reason given to sessions on shutdown.
var errShutdown = errors.New("controller shutting down")

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-secret" {
		if err := hashSecret(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// hashSecret prints the Argon2id hash of a client secret for use as
// security.clients[].secret_hash.
func hashSecret(args []string) error {
	if len(args) != 1 || args[0] == "" {
		return errors.New("usage: switchd hash-secret <secret>")
	}
	hash, err := auth.HashSecret(args[0])
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting Gray Logic switchd",
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

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

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

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	mqttClient, err := mqtt.Connect(cfg.MQTT)
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
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

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

	clients, err := auth.NewClients(apiClients(cfg.Security.Clients))
	if err != nil {
		return fmt.Errorf("loading API clients: %w", err)
	}

	manager := session.NewManager()
	tr, err := transport.New(transport.Options{
		Client:    mqttClient,
		Directory: directory(manager),
		QoS:       mqttClient.QoS(),
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("creating transport: %w", err)
	}

	m := metrics.New(manager)
	recorders := service.Recorders{m}
	if influxClient != nil {
		recorders = append(recorders, influxClient)
	}

	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	var sink *mirror.Sink
	var store *mirror.Store
	if cfg.Controller.Mirror {
		store = mirror.NewStore(db.DB)
		store.SetLogger(log)
		publisher := mirror.NewMQTTPublisher(mqttClient, mqttClient.QoS())
		publisher.SetLogger(log)

		sink = &mirror.Sink{}
		sink.Register(mirror.FanOut{store, publisher, hub})
		log.Info("state mirror enabled")
	}

	if addErr := addSessions(cfg, manager, sessionDeps{
		transmitter: tr,
		mirror:      sink,
		recorder:    recorders,
		log:         log,
	}); addErr != nil {
		return addErr
	}
	log.Info("device sessions created", "devices", manager.Len())

	if startErr := tr.Start(ctx); startErr != nil {
		return fmt.Errorf("starting transport: %w", startErr)
	}
	defer func() {
		log.Info("stopping transport")
		tr.Stop()
	}()

	sessionsDone := make(chan error, 1)
	go func() {
		sessionsDone <- manager.Run(ctx)
	}()
	defer func() {
		n := manager.InFlight()
		manager.DisconnectAll(errShutdown)
		log.Info("device sessions closed", "failed_exchanges", n)
	}()

	health := transport.NewHealthReporter(transport.HealthReporterConfig{
		ControllerID: cfg.Controller.ID,
		Version:      version,
		Interval:     cfg.GetHealthInterval(),
		Publisher:    mqttClient,
		Stats:        manager,
	})
	health.SetLogger(log)
	if pubErr := health.PublishStarting(); pubErr != nil {
		log.Warn("publishing starting health failed", "error", pubErr)
	}
	health.Start(ctx)
	defer health.Stop()

	deps := api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   log,
		Sessions: manager,
		Clients:  clients,
		Audit:    audit.NewSQLiteRepository(db.DB),
		Metrics:  m.Handler(),
		MQTT:     mqttClient,
		DB:       db.DB,
		Hub:      hub,
		Version:  version,
	}
	if store != nil {
		deps.Mirror = store
	}
	apiServer, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()

	if checkErr := healthCheck(ctx, db, mqttClient, influxClient); checkErr != nil {
		return fmt.Errorf("health check failed: %w", checkErr)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	select {
	case <-ctx.Done():
	case runErr := <-sessionsDone:
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("device sessions: %w", runErr)
		}
		<-ctx.Done()
	}
	log.Info("shutdown signal received, cleaning up")

	log.Info("Gray Logic switchd stopped")
	return nil
}

// sessionDeps are the collaborators shared by every device session.
type sessionDeps struct {
	transmitter service.Transmitter
	mirror      *mirror.Sink
	recorder    service.ExchangeRecorder
	log         *logging.Logger
}

// addSessions creates one session per configured device. Devices that
// list capabilities start connected with them.
func addSessions(cfg *config.Config, manager *session.Manager, deps sessionDeps) error {
	conv := convertor.Default()

	for _, dev := range cfg.Controller.Devices {
		ver, err := openflow.ParseVersion(dev.Version)
		if err != nil {
			return fmt.Errorf("device %s: %w", dev.ID, err)
		}

		sess, err := session.New(session.Config{
			DeviceID:       dev.ID,
			Version:        ver,
			MaxInFlight:    cfg.Controller.MaxInFlight,
			RequestTimeout: cfg.GetRequestTimeout(),
			ExpiryInterval: cfg.GetExpiryInterval(),
			Transmitter:    deps.transmitter,
			Convertor:      conv,
			Mirror:         deps.mirror,
			Recorder:       deps.recorder,
			Logger:         deps.log.With("device_id", dev.ID),
		})
		if err != nil {
			return fmt.Errorf("creating session %s: %w", dev.ID, err)
		}
		if addErr := manager.Add(sess); addErr != nil {
			return fmt.Errorf("adding session %s: %w", dev.ID, addErr)
		}

		if len(dev.Capabilities) > 0 {
			sess.Connect(ver, service.Capabilities(dev.Capabilities))
		}
	}
	return nil
}

// directory resolves device ids to sessions for the transport.
func directory(manager *session.Manager) transport.Directory {
	return func(deviceID string) (transport.Endpoint, bool) {
		sess, err := manager.Get(deviceID)
		if err != nil {
			return nil, false
		}
		return sess, true
	}
}

func apiClients(in []config.APIClientConfig) []auth.Client {
	out := make([]auth.Client, 0, len(in))
	for _, c := range in {
		out = append(out, auth.Client{
			ID:         c.ID,
			SecretHash: c.SecretHash,
			Role:       auth.Role(c.Role),
		})
	}
	return out
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// influxClient may be nil when InfluxDB is disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
