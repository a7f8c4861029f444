// Package logging provides structured logging for Homedeck.
//
// It wraps the standard library's log/slog with configuration-driven
// format and level selection, plus default service/version fields on
// every record. Components receive a *Logger (or a narrow logging
// interface) via dependency injection rather than using a global.
package logging
