package device

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/homedeck/homedeck/internal/infrastructure/database"
	"github.com/homedeck/homedeck/internal/room"
)

// CacheRepository snapshots the room and device catalogue into SQLite
// so a panel restarting without connectivity can render the last known
// state. The snapshot is whole-table: each save replaces the previous
// one inside a single transaction.
type CacheRepository struct {
	db *database.DB
}

// NewCacheRepository creates a repository backed by the given database.
func NewCacheRepository(db *database.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// SaveSnapshot replaces the cached catalogue with the given rooms and
// devices.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - rooms: Real rooms only (the All room is synthetic, never cached)
//   - devices: Full device list
//
// Returns:
//   - error: If the transaction fails (previous snapshot retained)
func (r *CacheRepository) SaveSnapshot(ctx context.Context, rooms []room.Room, devices []Device) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning snapshot tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	// devices references rooms; deletion order matters.
	if _, err := tx.ExecContext(ctx, "DELETE FROM devices"); err != nil {
		return fmt.Errorf("clearing devices: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM rooms"); err != nil {
		return fmt.Errorf("clearing rooms: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	for _, rm := range rooms {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO rooms (id, name, updated_at) VALUES (?, ?, ?)",
			rm.ID, rm.Name, now,
		); err != nil {
			return fmt.Errorf("inserting room %s: %w", rm.ID, err)
		}
	}

	for _, d := range devices {
		roomID := sql.NullString{String: d.RoomID, Valid: d.RoomID != ""}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO devices (id, room_id, name, type, is_on, brightness, target_temp, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, roomID, d.Name, string(d.Type), d.On, d.Brightness, d.TargetTemp, now,
		); err != nil {
			return fmt.Errorf("inserting device %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the cached catalogue. Both slices are empty when
// nothing has been cached yet.
func (r *CacheRepository) LoadSnapshot(ctx context.Context) ([]room.Room, []Device, error) {
	rooms, err := r.loadRooms(ctx)
	if err != nil {
		return nil, nil, err
	}

	devices, err := r.loadDevices(ctx)
	if err != nil {
		return nil, nil, err
	}
	return rooms, devices, nil
}

func (r *CacheRepository) loadRooms(ctx context.Context) ([]room.Room, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM rooms ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("querying cached rooms: %w", err)
	}
	defer rows.Close()

	var rooms []room.Room
	for rows.Next() {
		var rm room.Room
		if err := rows.Scan(&rm.ID, &rm.Name); err != nil {
			return nil, fmt.Errorf("scanning cached room: %w", err)
		}
		rooms = append(rooms, rm)
	}
	return rooms, rows.Err()
}

func (r *CacheRepository) loadDevices(ctx context.Context) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, room_id, name, type, is_on, brightness, target_temp
		FROM devices ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying cached devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		var d Device
		var roomID sql.NullString
		var typ string
		var brightness, targetTemp sql.NullInt64
		if err := rows.Scan(&d.ID, &roomID, &d.Name, &typ, &d.On, &brightness, &targetTemp); err != nil {
			return nil, fmt.Errorf("scanning cached device: %w", err)
		}
		d.RoomID = roomID.String
		d.Type = Type(typ)
		d.Brightness = int(brightness.Int64)
		d.TargetTemp = int(targetTemp.Int64)
		d.Refresh()
		devices = append(devices, d)
	}
	return devices, rows.Err()
}
