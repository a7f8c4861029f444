// Package device holds the in-memory device catalogue and every rule
// for mutating it.
//
// The Store applies toggles optimistically and reverts the flip if the
// backend rejects it; the collaborator call always carries the
// pre-toggle power state. Slider-style property changes update local
// state immediately and reach the backend through a per-device+field
// debouncer that coalesces a drag into a single write carrying the
// final value. Direct-entry commits clamp to the field's range and
// revert on unparseable input without touching the backend.
//
// The package also owns the SQLite offline cache (CacheRepository) and
// the device state history (StateHistory), both optional attachments
// wired in at startup.
package device
