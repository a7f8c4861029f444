package room

import (
	"testing"
	"time"
)

func TestNoticeBoard_TwoStageDismissal(t *testing.T) {
	board := NewNoticeBoard(40*time.Millisecond, 40*time.Millisecond)
	defer board.Stop()

	board.Show("Room name is required")

	msg, fading := board.Snapshot()
	if msg != "Room name is required" || fading {
		t.Fatalf("after Show: (%q, fading=%v), want visible message", msg, fading)
	}

	time.Sleep(60 * time.Millisecond)
	msg, fading = board.Snapshot()
	if msg == "" || !fading {
		t.Fatalf("after visible period: (%q, fading=%v), want fading message", msg, fading)
	}

	time.Sleep(60 * time.Millisecond)
	msg, _ = board.Snapshot()
	if msg != "" {
		t.Fatalf("after fade period: message = %q, want cleared", msg)
	}
}

func TestNoticeBoard_ShowRestartsCycle(t *testing.T) {
	board := NewNoticeBoard(40*time.Millisecond, 40*time.Millisecond)
	defer board.Stop()

	board.Show("first")
	time.Sleep(25 * time.Millisecond)
	board.Show("second")
	time.Sleep(25 * time.Millisecond)

	// 50ms after the first Show, but only 25ms after the second: the
	// restarted cycle must still be fully visible.
	msg, fading := board.Snapshot()
	if msg != "second" || fading {
		t.Errorf("got (%q, fading=%v), want (second, false)", msg, fading)
	}
}

func TestNoticeBoard_ClearCancelsTimers(t *testing.T) {
	board := NewNoticeBoard(20*time.Millisecond, 20*time.Millisecond)
	defer board.Stop()

	board.Show("transient")
	board.Clear()

	msg, fading := board.Snapshot()
	if msg != "" || fading {
		t.Errorf("after Clear: (%q, fading=%v), want empty", msg, fading)
	}

	time.Sleep(50 * time.Millisecond)
	if msg, _ := board.Snapshot(); msg != "" {
		t.Errorf("stale timer repopulated message %q", msg)
	}
}

func TestNoticeBoard_OnChangeFires(t *testing.T) {
	board := NewNoticeBoard(10*time.Millisecond, 10*time.Millisecond)
	defer board.Stop()

	changes := make(chan struct{}, 8)
	board.SetOnChange(func() { changes <- struct{}{} })

	board.Show("message")

	// Show, fade, and clear each notify.
	for i := 0; i < 3; i++ {
		select {
		case <-changes:
		case <-time.After(200 * time.Millisecond):
			t.Fatalf("missing change notification %d", i+1)
		}
	}
}
