package device

import (
	"context"
	"fmt"
	"time"

	"github.com/homedeck/homedeck/internal/infrastructure/database"
)

// StateChange is one recorded device state transition.
type StateChange struct {
	DeviceID   string    `json:"device_id"`
	Field      string    `json:"field"`
	Value      string    `json:"value"`
	Source     string    `json:"source"`
	RecordedAt time.Time `json:"recorded_at"`
}

// StateHistory persists device state transitions to SQLite. It
// implements HistoryRecorder for the store.
type StateHistory struct {
	db *database.DB
}

// NewStateHistory creates a history repository backed by the given
// database.
func NewStateHistory(db *database.DB) *StateHistory {
	return &StateHistory{db: db}
}

// Record appends a state transition.
func (h *StateHistory) Record(ctx context.Context, deviceID, field, value, source string) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO state_history (device_id, field, value, source, recorded_at)
		VALUES (?, ?, ?, ?, ?)`,
		deviceID, field, value, source, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording state change: %w", err)
	}
	return nil
}

// Recent returns the newest transitions for a device, newest first.
func (h *StateHistory) Recent(ctx context.Context, deviceID string, limit int) ([]StateChange, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT device_id, field, value, source, recorded_at
		FROM state_history
		WHERE device_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?`,
		deviceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying state history: %w", err)
	}
	defer rows.Close()

	var changes []StateChange
	for rows.Next() {
		var c StateChange
		var recordedAt string
		if err := rows.Scan(&c.DeviceID, &c.Field, &c.Value, &c.Source, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning state change: %w", err)
		}
		c.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt) //nolint:errcheck // Format is controlled
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// Prune removes transitions older than the retention window.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - retention: Age beyond which records are dropped
//
// Returns:
//   - int64: Number of rows removed
//   - error: If the delete fails
func (h *StateHistory) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339)

	res, err := h.db.ExecContext(ctx,
		"DELETE FROM state_history WHERE recorded_at < ?", cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("pruning state history: %w", err)
	}
	return res.RowsAffected()
}
