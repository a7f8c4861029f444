// Package database provides the SQLite persistence layer for the local
// panel cache.
//
// Homedeck keeps a local copy of rooms, devices, and device state history
// so a panel can render and record activity even when the backend is
// unreachable. SQLite runs in WAL mode with foreign keys enforced, and the
// connection pool is capped at a single writer to avoid SQLITE_BUSY churn.
//
// Schema changes are embedded as versioned SQL migrations (see the
// migrations package) and applied on startup via Migrate. Each migration
// runs in its own transaction so a failure leaves earlier migrations
// committed and later ones untouched.
package database
