package recording

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"time"

	"github.com/deskstratum/agent/internal/dispatch"
	"github.com/deskstratum/agent/internal/envelope"
	"github.com/deskstratum/agent/internal/logging"
)

var frameLog = logging.Named("recording.frames")

const frameDebounce = 300 * time.Millisecond

// FrameCapturer captures one screenshot and writes it to the given path.
// Satisfied by a small adapter around the vision stratum's screenshot action.
type FrameCapturer interface {
	Capture(ctx context.Context, path string) error
}

// dispatcherCapturer captures a screenshot through the vision stratum and
// writes the decoded PNG bytes to path.
type dispatcherCapturer struct {
	dispatcher *dispatch.Dispatcher
}

// FrameProducer consumes screenshot triggers from the event producer,
// debounces bursts, and writes numbered frames to framesDir (§4.C11 frame
// producer).
type FrameProducer struct {
	capturer     FrameCapturer
	framesDir    string
	sessionStart int64

	frames map[int64]string
}

func NewFrameProducer(capturer FrameCapturer, framesDir string, sessionStart int64) *FrameProducer {
	return &FrameProducer{
		capturer:     capturer,
		framesDir:    framesDir,
		sessionStart: sessionStart,
		frames:       make(map[int64]string),
	}
}

// Run consumes triggers until the channel closes, writing one frame per
// trigger that survives the 300ms debounce window.
func (p *FrameProducer) Run(ctx context.Context, triggers <-chan struct{}) {
	var last time.Time
	for range triggers {
		now := time.Now()
		if !last.IsZero() && now.Sub(last) < frameDebounce {
			continue
		}
		last = now
		if err := p.capture(ctx, now); err != nil {
			frameLog.Errorf("frame capture failed: %v", err)
		}
	}
}

func (p *FrameProducer) capture(ctx context.Context, at time.Time) error {
	relativeMs := at.UnixMilli() - p.sessionStart
	name := formatFrameName(relativeMs)
	path := filepath.Join(p.framesDir, name)
	if err := p.capturer.Capture(ctx, path); err != nil {
		return err
	}
	p.frames[relativeMs] = path
	return nil
}

// FrameAt returns the path of the most recent frame whose timestamp is ≤
// relativeMs, or "" if none exists yet (invariant 4).
func (p *FrameProducer) FrameAt(relativeMs int64) string {
	var bestMs int64 = -1
	var bestPath string
	for ms, path := range p.frames {
		if ms <= relativeMs && ms > bestMs {
			bestMs = ms
			bestPath = path
		}
	}
	return bestPath
}

// Count returns how many frames have been captured so far.
func (p *FrameProducer) Count() int { return len(p.frames) }

func newDispatcherCapturer(d *dispatch.Dispatcher) *dispatcherCapturer {
	return &dispatcherCapturer{dispatcher: d}
}

func (c *dispatcherCapturer) Capture(ctx context.Context, path string) error {
	result := c.dispatcher.Dispatch(ctx, envelope.Command{
		ID: path, Layer: envelope.LayerVision, Action: "screenshot",
		Params: map[string]any{"mode": "fullscreen"},
	})
	if result.Status == envelope.StatusError {
		return envelope.New(envelope.KindObservationFailure, "screenshot capture failed: %v", result.Data["error"])
	}
	b64, _ := result.Data["image"].(string)
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return envelope.Wrap(envelope.KindObservationFailure, err, "failed to decode screenshot")
	}
	return os.WriteFile(path, raw, 0o644)
}
