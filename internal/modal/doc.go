// Package modal routes an opened device to its type-specific modal and
// runs the two-step delete confirmation, keeping a merged snapshot of
// the device so the open modal tracks optimistic state.
package modal
