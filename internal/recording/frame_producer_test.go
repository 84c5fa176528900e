package recording

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCapturer struct {
	calls int32
}

func (c *countingCapturer) Capture(ctx context.Context, path string) error {
	atomic.AddInt32(&c.calls, 1)
	return nil
}

func TestFrameProducer_DebounceDropsRapidTriggers(t *testing.T) {
	capturer := &countingCapturer{}
	p := NewFrameProducer(capturer, t.TempDir(), time.Now().UnixMilli())

	triggers := make(chan struct{})
	done := make(chan struct{})
	go func() {
		p.Run(context.Background(), triggers)
		close(done)
	}()

	triggers <- struct{}{}
	triggers <- struct{}{} // within the 300ms debounce window, dropped
	close(triggers)
	<-done

	assert.Equal(t, int32(1), atomic.LoadInt32(&capturer.calls))
}

func TestFrameProducer_FrameAtReturnsMostRecentAtOrBefore(t *testing.T) {
	p := NewFrameProducer(&countingCapturer{}, t.TempDir(), 0)
	p.frames[0] = "frame-000000.png"
	p.frames[1000] = "frame-001000.png"
	p.frames[2000] = "frame-002000.png"

	assert.Equal(t, "frame-001000.png", p.FrameAt(1500))
	assert.Equal(t, "frame-000000.png", p.FrameAt(500))
	assert.Equal(t, "frame-002000.png", p.FrameAt(5000))
	assert.Empty(t, p.FrameAt(-1))
}

func TestFrameProducer_CountTracksCaptures(t *testing.T) {
	p := NewFrameProducer(&countingCapturer{}, t.TempDir(), time.Now().UnixMilli())
	require.NoError(t, p.capture(context.Background(), time.Now()))
	assert.Equal(t, 1, p.Count())
}
