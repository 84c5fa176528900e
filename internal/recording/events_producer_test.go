package recording

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProducer(sessionStart int64) *EventsProducer {
	return &EventsProducer{
		sessionStart: sessionStart,
		events:       make(chan Event, 16),
		triggers:     make(chan struct{}, 16),
	}
}

// TestKeystrokeCoalescing_S3 reproduces the spec's worked example: keypress
// h@0, i@50, !@120, then silence for 500ms (the idle timer fires) — one
// typing event, text "hi!", keyCount 3, endMs≈620 (the close time, not the
// last keystroke time).
func TestKeystrokeCoalescing_S3(t *testing.T) {
	p := newTestProducer(0)
	p.appendKeypress(rawEvent{Key: "h", TimeMs: 0})
	p.appendKeypress(rawEvent{Key: "i", TimeMs: 50})
	p.appendKeypress(rawEvent{Key: "!", TimeMs: 120})
	p.flushBurstIdle()

	ev := <-p.events
	require.Equal(t, EventTyping, ev.Kind)
	assert.Equal(t, "hi!", ev.Data["text"])
	assert.Equal(t, 3, ev.Data["keyCount"])
	assert.Equal(t, int64(0), ev.Data["startMs"])
	assert.Equal(t, int64(620), ev.Data["endMs"])
}

func TestKeystrokeCoalescing_NonPrintableKeysCountButDontAppend(t *testing.T) {
	p := newTestProducer(0)
	p.appendKeypress(rawEvent{Key: "h", TimeMs: 0})
	p.appendKeypress(rawEvent{Key: "Backspace", TimeMs: 10})
	p.appendKeypress(rawEvent{Key: "i", TimeMs: 20})
	p.flushBurst()

	ev := <-p.events
	assert.Equal(t, "hi", ev.Data["text"])
	assert.Equal(t, 3, ev.Data["keyCount"])
}

func TestFlushBurst_NoOpWhenNoPendingBurst(t *testing.T) {
	p := newTestProducer(0)
	p.flushBurst()
	select {
	case ev := <-p.events:
		t.Fatalf("unexpected event emitted: %+v", ev)
	default:
	}
}

func TestHandle_HotkeyFlushesPendingBurst(t *testing.T) {
	p := newTestProducer(0)
	p.appendKeypress(rawEvent{Key: "a", TimeMs: 0})
	p.handle(rawEvent{Type: "hotkey", Keys: []string{"cmd", "s"}, TimeMs: 100}, nil, nil)

	first := <-p.events
	assert.Equal(t, EventTyping, first.Kind)
	assert.Equal(t, int64(0), first.Data["endMs"], "hotkey interrupt closes the burst at the last keystroke, no idle delay")
	second := <-p.events
	assert.Equal(t, EventHotkey, second.Kind)
	assert.Equal(t, []string{"cmd", "s"}, second.Data["keys"])
}

func TestAccumulateScroll_CrossingThresholdTriggersAndResets(t *testing.T) {
	p := newTestProducer(0)

	p.accumulateScroll(-300, nil)
	select {
	case <-p.triggers:
		t.Fatal("should not trigger below threshold")
	default:
	}

	p.accumulateScroll(250, nil)
	select {
	case <-p.triggers:
	default:
		t.Fatal("expected a trigger once the 500px threshold is crossed")
	}
	assert.Equal(t, 0, p.scrollAccum)
}

// TestTrigger_ResetsHeartbeatDirectly exercises the §8 boundary behaviour
// "a real event arriving at 4.9s re-starts the window": trigger() must
// reset the heartbeat ticker synchronously, not via a channel send that
// nothing in the same goroutine can ever receive.
func TestTrigger_ResetsHeartbeatDirectly(t *testing.T) {
	p := newTestProducer(0)
	heartbeat := time.NewTicker(50 * time.Millisecond)
	defer heartbeat.Stop()

	time.Sleep(40 * time.Millisecond)
	p.trigger(heartbeat) // resets the 50ms window with 10ms left on the old one

	select {
	case <-heartbeat.C:
		t.Fatal("heartbeat fired before the reset window elapsed")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestFormatFrameName_ZeroPadsToSixDigits(t *testing.T) {
	assert.Equal(t, "frame-000042.png", formatFrameName(42))
	assert.Equal(t, "frame-123456.png", formatFrameName(123456))
	assert.Equal(t, "frame-000000.png", formatFrameName(-5))
}
