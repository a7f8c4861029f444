package room

import (
	"sync"
	"time"
)

// NoticeBoard holds a single transient error message with two-stage
// auto-dismissal: the message stays fully visible for a fixed period,
// then fades for a second period before clearing entirely.
//
// Showing a new message cancels any in-flight dismissal and restarts
// the cycle. Stop must be called when the board is discarded so pending
// timers cannot fire afterwards.
type NoticeBoard struct {
	mu         sync.Mutex
	message    string
	fading     bool
	visibleFor time.Duration
	fadeFor    time.Duration
	fadeTimer  *time.Timer
	clearTimer *time.Timer
	onChange   func()
}

// NewNoticeBoard creates a board with the given visible and fade durations.
func NewNoticeBoard(visibleFor, fadeFor time.Duration) *NoticeBoard {
	return &NoticeBoard{
		visibleFor: visibleFor,
		fadeFor:    fadeFor,
	}
}

// SetOnChange registers a callback invoked after every state change.
// Used to push notice transitions to attached panels.
func (n *NoticeBoard) SetOnChange(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChange = fn
}

// Show displays a message and schedules its two-stage dismissal.
func (n *NoticeBoard) Show(message string) {
	n.mu.Lock()
	n.cancelTimersLocked()
	n.message = message
	n.fading = false
	n.fadeTimer = time.AfterFunc(n.visibleFor, n.beginFade)
	fn := n.onChange
	n.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Snapshot returns the current message and whether it is fading.
// An empty message means nothing is displayed.
func (n *NoticeBoard) Snapshot() (message string, fading bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.message, n.fading
}

// Clear removes the message immediately and cancels pending timers.
func (n *NoticeBoard) Clear() {
	n.mu.Lock()
	n.cancelTimersLocked()
	n.message = ""
	n.fading = false
	fn := n.onChange
	n.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Stop cancels pending timers without clearing the message.
func (n *NoticeBoard) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelTimersLocked()
}

func (n *NoticeBoard) beginFade() {
	n.mu.Lock()
	if n.message == "" {
		n.mu.Unlock()
		return
	}
	n.fading = true
	n.clearTimer = time.AfterFunc(n.fadeFor, n.clear)
	fn := n.onChange
	n.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (n *NoticeBoard) clear() {
	n.mu.Lock()
	n.message = ""
	n.fading = false
	fn := n.onChange
	n.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (n *NoticeBoard) cancelTimersLocked() {
	if n.fadeTimer != nil {
		n.fadeTimer.Stop()
		n.fadeTimer = nil
	}
	if n.clearTimer != nil {
		n.clearTimer.Stop()
		n.clearTimer = nil
	}
}
