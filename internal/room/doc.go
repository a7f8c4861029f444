// Package room manages the ordered room list for a home, including the
// synthetic All room that aggregates every device.
//
// The Store tracks which single room is active, validates and persists
// adds through a backend collaborator, and cascades confirmed deletions
// to the device layer through a registered callback. Transient error
// feedback goes through a NoticeBoard with a two-stage fade-out.
package room
