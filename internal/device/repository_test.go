package device

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/homedeck/homedeck/internal/infrastructure/database"
	"github.com/homedeck/homedeck/internal/room"

	_ "github.com/homedeck/homedeck/migrations"
)

func openMigratedDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "cache.db"),
		WALMode:     true,
		BusyTimeout: 5000,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestCacheRepository_SnapshotRoundTrip(t *testing.T) {
	repo := NewCacheRepository(openMigratedDB(t))
	ctx := context.Background()

	rooms := []room.Room{
		{ID: "r1", Name: "Kitchen"},
		{ID: "r2", Name: "Bedroom"},
	}
	devices := []Device{
		{ID: "1", Name: "Desk Lamp", Type: TypeLight, RoomID: "r1", On: true, Brightness: 75},
		{ID: "2", Name: "Hall Thermostat", Type: TypeThermostat, RoomID: "r2", TargetTemp: 72},
		{ID: "3", Name: "Orphan Cam", Type: TypeCamera},
	}

	if err := repo.SaveSnapshot(ctx, rooms, devices); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	gotRooms, gotDevices, err := repo.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(gotRooms) != 2 {
		t.Fatalf("loaded %d rooms, want 2", len(gotRooms))
	}
	if gotRooms[0].Name != "Kitchen" {
		t.Errorf("first room = %q, want Kitchen (insertion order)", gotRooms[0].Name)
	}
	if len(gotDevices) != 3 {
		t.Fatalf("loaded %d devices, want 3", len(gotDevices))
	}

	lamp := gotDevices[0]
	if lamp.Name != "Desk Lamp" || !lamp.On || lamp.Brightness != 75 || lamp.Status != "On" {
		t.Errorf("lamp round-trip = %+v", lamp)
	}
	if gotDevices[2].RoomID != "" {
		t.Errorf("orphan device RoomID = %q, want empty", gotDevices[2].RoomID)
	}
}

func TestCacheRepository_OrphanedDeviceSurvivesSnapshot(t *testing.T) {
	repo := NewCacheRepository(openMigratedDB(t))
	ctx := context.Background()

	devices := []Device{{ID: "d1", Name: "Lobby Cam", Type: TypeCamera}}
	if err := repo.SaveSnapshot(ctx, nil, devices); err != nil {
		t.Fatalf("SaveSnapshot() with room-less device error = %v", err)
	}

	_, got, err := repo.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("loaded %d devices, want 1", len(got))
	}
	if got[0].RoomID != "" {
		t.Errorf("RoomID = %q, want empty", got[0].RoomID)
	}
}

func TestCacheRepository_SaveReplacesPrevious(t *testing.T) {
	repo := NewCacheRepository(openMigratedDB(t))
	ctx := context.Background()

	first := []room.Room{{ID: "r1", Name: "Kitchen"}}
	if err := repo.SaveSnapshot(ctx, first, []Device{{ID: "1", Name: "Lamp", Type: TypeLight, RoomID: "r1"}}); err != nil {
		t.Fatalf("first SaveSnapshot() error = %v", err)
	}

	second := []room.Room{{ID: "r2", Name: "Bedroom"}}
	if err := repo.SaveSnapshot(ctx, second, nil); err != nil {
		t.Fatalf("second SaveSnapshot() error = %v", err)
	}

	rooms, devices, err := repo.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != "r2" {
		t.Errorf("rooms = %+v, want only r2", rooms)
	}
	if len(devices) != 0 {
		t.Errorf("devices = %+v, want empty", devices)
	}
}

func TestStateHistory_RecordAndRecent(t *testing.T) {
	history := NewStateHistory(openMigratedDB(t))
	ctx := context.Background()

	for _, v := range []string{"40", "25", "10"} {
		if err := history.Record(ctx, "1", FieldBrightness, v, SourceCommand); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if err := history.Record(ctx, "2", "is_on", "true", SourceRemote); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	changes, err := history.Recent(ctx, "1", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(changes) != 3 {
		t.Fatalf("Recent() returned %d changes, want 3", len(changes))
	}
	if changes[0].Value != "10" {
		t.Errorf("newest change value = %q, want 10", changes[0].Value)
	}
	if changes[0].Source != SourceCommand {
		t.Errorf("source = %q, want command", changes[0].Source)
	}
}

func TestStateHistory_Prune(t *testing.T) {
	history := NewStateHistory(openMigratedDB(t))
	ctx := context.Background()

	if err := history.Record(ctx, "1", "is_on", "true", SourceCommand); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	// Nothing is older than an hour.
	removed, err := history.Prune(ctx, time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("Prune(1h) removed %d rows, want 0", removed)
	}

	// A zero retention window prunes everything recorded so far.
	removed, err = history.Prune(ctx, -time.Second)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Prune(-1s) removed %d rows, want 1", removed)
	}
}
