// Homedeck Panel Core
//
// This is the main entry point for the Homedeck panel core, the
// process behind a wall-mounted smart-home panel. It coordinates room
// and device state against a remote backend, serves the local panel
// HTTP/WebSocket API, and keeps an offline cache so the panel stays
// usable when the backend is unreachable.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/homedeck/homedeck/migrations"

	"github.com/homedeck/homedeck/internal/api"
	"github.com/homedeck/homedeck/internal/backend"
	"github.com/homedeck/homedeck/internal/device"
	"github.com/homedeck/homedeck/internal/events"
	"github.com/homedeck/homedeck/internal/form"
	"github.com/homedeck/homedeck/internal/infrastructure/config"
	"github.com/homedeck/homedeck/internal/infrastructure/database"
	"github.com/homedeck/homedeck/internal/infrastructure/influxdb"
	"github.com/homedeck/homedeck/internal/infrastructure/logging"
	"github.com/homedeck/homedeck/internal/infrastructure/mqtt"
	"github.com/homedeck/homedeck/internal/modal"
	"github.com/homedeck/homedeck/internal/room"
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

// Offline cache and history housekeeping intervals.
const (
	snapshotInterval = time.Minute
	pruneInterval    = time.Hour
	historyRetention = 30 * 24 * time.Hour
)

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
	log.Info("starting Homedeck panel core",
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

	// Open the offline cache database
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

	cache := device.NewCacheRepository(db)
	history := device.NewStateHistory(db)

	// Select the backend collaborator
	collaborator, homeID, err := connectBackend(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connecting backend: %w", err)
	}
	log.Info("backend ready", "home_id", homeID, "local", cfg.Backend.Local)

	// Room and device stores
	roomNotices := room.NewNoticeBoard(cfg.GetToastVisible(), cfg.GetToastFade())
	defer roomNotices.Stop()
	rooms := room.NewStore(homeID, collaborator, roomNotices, log)

	devices := device.NewStore(collaborator, log, cfg.GetDebounceInterval())
	defer devices.Stop()
	devices.SetHistory(history)

	rooms.SetCascade(devices.RemoveByRoom)
	rooms.SetDeviceCounter(devices.CountInRoom)

	// Initial load, falling back to the offline cache when the backend
	// is unreachable
	if loadErr := loadState(ctx, rooms, devices, cache, log); loadErr != nil {
		return loadErr
	}

	// Panel interaction state machines
	bus := events.NewBus()

	formNotices := room.NewNoticeBoard(cfg.GetToastVisible(), cfg.GetToastFade())
	defer formNotices.Stop()
	coordinator := form.NewCoordinator(rooms, devices, bus, formNotices, log)

	manager := modal.NewManager(devices, log)

	// Connect to the MQTT push channel (optional)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT, log)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			mqttClient.Disconnect()
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		if subErr := subscribeStateUpdates(mqttClient, devices, log); subErr != nil {
			return fmt.Errorf("subscribing to state topics: %w", subErr)
		}
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB telemetry (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB, log)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			influxClient.Close()
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		devices.SetTelemetry(influxClient)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Panel API server
	server, err := api.New(api.Deps{
		Config:  cfg.API,
		WS:      cfg.WS,
		Logger:  log,
		Rooms:   rooms,
		Devices: devices,
		Form:    coordinator,
		Modal:   manager,
		Bus:     bus,
		History: history,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// Push every state change to connected panels
	rooms.SetNotifier(server.NotifyStateChanged)
	devices.SetNotifier(server.NotifyStateChanged)
	roomNotices.SetOnChange(server.NotifyStateChanged)
	formNotices.SetOnChange(server.NotifyStateChanged)
	coordinator.SetNotifier(server.NotifyStateChanged)
	manager.SetNotifier(server.NotifyStateChanged)

	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Background housekeeping: periodic cache snapshots and history pruning
	go snapshotLoop(ctx, rooms, devices, cache, log)
	go pruneLoop(ctx, history, log)

	if err := healthCheck(ctx, db); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Push pending debounced writes and persist a final snapshot before
	// the deferred closes run
	devices.Flush()
	saveSnapshot(context.Background(), rooms, devices, cache, log)

	log.Info("Homedeck panel core stopped")
	return nil
}

// connectBackend returns the collaborator to use and the home it
// manages. With backend.local set, an in-memory backend replaces the
// remote REST client.
func connectBackend(ctx context.Context, cfg *config.Config, log *logging.Logger) (backendCollaborator, string, error) {
	if cfg.Backend.Local {
		return backend.NewLocalBackend(), cfg.Home.ID, nil
	}

	session := backend.NewSession(cfg.GetRefreshLeeway(), log)
	session.SetOnRefresh(func() {
		log.Warn("backend token nearing expiry, refresh required")
	})
	if cfg.Backend.Token != "" {
		session.SetToken(cfg.Backend.Token)
	}

	client := backend.NewClient(cfg.Backend, session, log)

	homeID, err := resolveHome(ctx, client, cfg)
	if err != nil {
		return nil, "", err
	}
	return client, homeID, nil
}

// backendCollaborator is the union of the room and device collaborator
// contracts, satisfied by both the REST client and the local backend.
type backendCollaborator interface {
	room.Collaborator
	device.Collaborator
}

// resolveHome picks the home this panel manages: the configured ID if
// set, otherwise the account's first home, creating one when the
// account has none.
func resolveHome(ctx context.Context, client *backend.Client, cfg *config.Config) (string, error) {
	if cfg.Home.ID != "" {
		return cfg.Home.ID, nil
	}

	homes, err := client.ListHomes(ctx)
	if err != nil {
		return "", fmt.Errorf("listing homes: %w", err)
	}
	if len(homes) > 0 {
		return homes[0].ID, nil
	}

	created, err := client.CreateHome(ctx, cfg.Home.Name)
	if err != nil {
		return "", fmt.Errorf("creating home: %w", err)
	}
	return created.ID, nil
}

// loadState fetches rooms and devices from the backend. When either
// fetch fails, the last cache snapshot is restored so the panel can
// show stale-but-useful state; devices.LoadError carries the message
// to the panel.
func loadState(ctx context.Context, rooms *room.Store, devices *device.Store, cache *device.CacheRepository, log *logging.Logger) error {
	roomErr := rooms.Load(ctx)
	deviceErr := devices.Load(ctx)
	if roomErr == nil && deviceErr == nil {
		saveSnapshot(ctx, rooms, devices, cache, log)
		return nil
	}

	log.Warn("backend load failed, restoring offline cache",
		"room_error", roomErr,
		"device_error", deviceErr,
	)

	cachedRooms, cachedDevices, cacheErr := cache.LoadSnapshot(ctx)
	if cacheErr != nil {
		return fmt.Errorf("loading offline cache: %w", cacheErr)
	}

	rooms.Restore(cachedRooms)
	devices.Restore(cachedDevices)
	log.Info("offline cache restored",
		"rooms", len(cachedRooms),
		"devices", len(cachedDevices),
	)
	return nil
}

// subscribeStateUpdates wires backend-originated device state changes
// into the device store.
func subscribeStateUpdates(client *mqtt.Client, devices *device.Store, log *logging.Logger) error {
	return client.Subscribe(mqtt.StateTopicFilter, func(topic string, payload []byte) error {
		deviceID := mqtt.DeviceIDFromStateTopic(topic)
		if deviceID == "" {
			return fmt.Errorf("unrecognised state topic: %s", topic)
		}

		var update device.RemoteUpdate
		if err := json.Unmarshal(payload, &update); err != nil {
			return fmt.Errorf("decoding state update: %w", err)
		}
		update.DeviceID = deviceID

		devices.ApplyRemote(update)
		return nil
	})
}

// snapshotLoop persists the current room and device state to the
// offline cache on an interval.
func snapshotLoop(ctx context.Context, rooms *room.Store, devices *device.Store, cache *device.CacheRepository, log *logging.Logger) {
	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			saveSnapshot(ctx, rooms, devices, cache, log)
		}
	}
}

// saveSnapshot writes the current state to the offline cache. Failures
// are logged, not fatal: the cache is best-effort.
func saveSnapshot(ctx context.Context, rooms *room.Store, devices *device.Store, cache *device.CacheRepository, log *logging.Logger) {
	if err := cache.SaveSnapshot(ctx, rooms.RealRooms(), devices.Devices()); err != nil {
		log.Error("saving offline cache snapshot", "error", err)
	}
}

// pruneLoop trims old state history rows on an interval.
func pruneLoop(ctx context.Context, history *device.StateHistory, log *logging.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned, err := history.Prune(ctx, historyRetention)
			if err != nil {
				log.Error("pruning state history", "error", err)
				continue
			}
			if pruned > 0 {
				log.Info("state history pruned", "rows", pruned)
			}
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses HOMEDECK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HOMEDECK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB) error {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(checkCtx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}
