package recording

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os/exec"
	"strconv"
	"time"

	"github.com/deskstratum/agent/internal/logging"
)

var evLog = logging.Named("recording.events")

const (
	burstIdleWindow = 500 * time.Millisecond
	scrollThreshold = 500
	heartbeatPeriod = 5 * time.Second
)

// rawEvent is one NDJSON line emitted by the native event-monitor helper.
type rawEvent struct {
	Type   string `json:"type"` // keypress, hotkey, click, doubleclick, scroll, app_switch, window_focus
	Key    string `json:"key"`
	Keys   []string `json:"keys"`
	Button string `json:"button"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	DeltaY int    `json:"deltaY"`
	FromApp string `json:"fromApp"`
	ToApp   string `json:"toApp"`
	App     string `json:"app"`
	Title   string `json:"title"`
	TimeMs  int64  `json:"timeMs"` // unix millis, set by the helper
}

// EventsProducer spawns the native event-monitor helper, coalesces keystroke
// bursts and scroll runs, and emits Event values plus screenshot triggers
// (§4.C11 event producer).
type EventsProducer struct {
	helperPath string
	sessionStart int64

	events    chan Event
	triggers  chan struct{}

	burst       TypingData
	burstActive bool

	scrollAccum int
}

// NewEventsProducer returns a producer that will exec helperPath when Run is
// called. sessionStart is the session's absolute start time (unix millis),
// used to compute each event's RelativeMs.
func NewEventsProducer(helperPath string, sessionStart int64) *EventsProducer {
	return &EventsProducer{
		helperPath:   helperPath,
		sessionStart: sessionStart,
		events:       make(chan Event, 256),
		triggers:     make(chan struct{}, 16),
	}
}

// Events returns the channel of coalesced events. Must be drained by the
// manifest builder.
func (p *EventsProducer) Events() <-chan Event { return p.events }

// Triggers returns the channel of screenshot triggers consumed by the frame
// producer.
func (p *EventsProducer) Triggers() <-chan struct{} { return p.triggers }

// Run spawns the native helper and parses its NDJSON output until ctx is
// cancelled or stdout closes. Must run in its own goroutine.
func (p *EventsProducer) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, p.helperPath)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	idleTimer := time.NewTimer(burstIdleWindow)
	idleTimer.Stop()
	heartbeat := time.NewTicker(heartbeatPeriod)
	defer heartbeat.Stop()

	lines := make(chan rawEvent, 64)
	go p.scan(stdout, lines)

	for {
		select {
		case <-ctx.Done():
			p.flushBurst()
			close(p.events)
			close(p.triggers)
			cmd.Wait()
			return ctx.Err()

		case ev, ok := <-lines:
			if !ok {
				p.flushBurst()
				close(p.events)
				close(p.triggers)
				return cmd.Wait()
			}
			p.handle(ev, idleTimer, heartbeat)

		case <-idleTimer.C:
			p.flushBurstIdle()

		case <-heartbeat.C:
			p.trigger(heartbeat)
		}
	}
}

func (p *EventsProducer) scan(r io.Reader, out chan<- rawEvent) {
	defer close(out)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev rawEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			evLog.Warnf("unparseable event line: %v", err)
			continue
		}
		out <- ev
	}
}

func (p *EventsProducer) handle(ev rawEvent, idleTimer *time.Timer, heartbeat *time.Ticker) {
	switch ev.Type {
	case "keypress":
		p.appendKeypress(ev)
		idleTimer.Reset(burstIdleWindow)
		return
	case "hotkey":
		p.flushBurst()
		p.emit(EventHotkey, ev.TimeMs, map[string]any{"keys": ev.Keys})
	case "click":
		p.flushBurst()
		p.emit(EventClick, ev.TimeMs, map[string]any{"button": ev.Button, "x": ev.X, "y": ev.Y})
	case "doubleclick":
		p.flushBurst()
		p.emit(EventDoubleClick, ev.TimeMs, map[string]any{"x": ev.X, "y": ev.Y})
	case "scroll":
		p.flushBurst()
		p.emit(EventScroll, ev.TimeMs, map[string]any{"x": ev.X, "y": ev.Y, "deltaY": ev.DeltaY})
		p.accumulateScroll(ev.DeltaY, heartbeat)
		return
	case "app_switch":
		p.flushBurst()
		p.emit(EventAppSwitch, ev.TimeMs, map[string]any{"fromApp": ev.FromApp, "toApp": ev.ToApp})
	case "window_focus":
		p.flushBurst()
		p.emit(EventWindowFocus, ev.TimeMs, map[string]any{"app": ev.App, "title": ev.Title})
	default:
		evLog.Debugf("ignoring unknown event type %q", ev.Type)
		return
	}
	p.trigger(heartbeat)
}

// appendKeypress accumulates one key into the pending typing burst. Only
// printable single characters contribute to Text; every keypress, printable
// or not, increments KeyCount.
func (p *EventsProducer) appendKeypress(ev rawEvent) {
	if !p.burstActive {
		p.burstActive = true
		p.burst = TypingData{StartMs: ev.TimeMs}
	}
	p.burst.EndMs = ev.TimeMs
	p.burst.KeyCount++
	if len(ev.Key) == 1 {
		p.burst.Text += ev.Key
	}
}

// flushBurst closes the pending typing burst at the last keypress's own
// timestamp — used when a non-keypress event or stop interrupts the burst
// (§4.C11: the burst closes "on any non-keypress input event, or on stop").
func (p *EventsProducer) flushBurst() {
	p.flushBurstAt(func(lastKeyMs int64) int64 { return lastKeyMs })
}

// flushBurstIdle closes the pending typing burst 500ms after the last
// keypress — used when the idle timer itself fires (§4.C11: "the burst
// closes 500 ms after the last keypress"; §8 scenario S3: endMs≈620 for a
// last key at 120).
func (p *EventsProducer) flushBurstIdle() {
	p.flushBurstAt(func(lastKeyMs int64) int64 { return lastKeyMs + burstIdleWindow.Milliseconds() })
}

func (p *EventsProducer) flushBurstAt(closeTime func(lastKeyMs int64) int64) {
	if !p.burstActive {
		return
	}
	b := p.burst
	p.burstActive = false
	p.burst = TypingData{}
	end := closeTime(b.EndMs)
	p.emit(EventTyping, end, map[string]any{
		"text": b.Text, "keyCount": b.KeyCount, "startMs": p.relative(b.StartMs), "endMs": p.relative(end),
	})
}

func (p *EventsProducer) accumulateScroll(deltaY int, heartbeat *time.Ticker) {
	if deltaY < 0 {
		deltaY = -deltaY
	}
	p.scrollAccum += deltaY
	if p.scrollAccum >= scrollThreshold {
		p.scrollAccum = 0
		p.trigger(heartbeat)
	}
}

// trigger emits a screenshot trigger and resets the heartbeat ticker
// directly, so activity genuinely restarts the 5s quiescence window (§8
// boundary behaviour: "a real event arriving at 4.9s re-starts the
// window"). heartbeat is nil in tests that don't exercise the heartbeat.
func (p *EventsProducer) trigger(heartbeat *time.Ticker) {
	select {
	case p.triggers <- struct{}{}:
	default:
	}
	if heartbeat != nil {
		heartbeat.Reset(heartbeatPeriod)
	}
}

func (p *EventsProducer) relative(absMs int64) int64 {
	return absMs - p.sessionStart
}

func (p *EventsProducer) emit(kind EventKind, absMs int64, data map[string]any) {
	p.events <- Event{
		Kind:         kind,
		AbsoluteTime: absMs,
		RelativeMs:   p.relative(absMs),
		Data:         data,
	}
}

func formatFrameName(relativeMs int64) string {
	if relativeMs < 0 {
		relativeMs = 0
	}
	return "frame-" + zeroPad(relativeMs, 6) + ".png"
}

func zeroPad(n int64, width int) string {
	s := strconv.FormatInt(n, 10)
	for len(s) < width {
		s = "0" + s
	}
	return s
}
