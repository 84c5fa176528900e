package recording

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchNarration_OverlapWins(t *testing.T) {
	segments := []TranscriptionSegment{
		{Text: "click the button", StartTime: 1.0, EndTime: 2.0},
		{Text: "type the name", StartTime: 3.0, EndTime: 4.0},
	}
	assert.Equal(t, "click the button", matchNarration(1500, segments))
}

func TestMatchNarration_FallbackNearestEdge(t *testing.T) {
	segments := []TranscriptionSegment{
		{Text: "earlier narration", StartTime: 0, EndTime: 1.0},
	}
	// event at 1.5s is 500ms past the segment's end, within the 3s window.
	assert.Equal(t, "earlier narration", matchNarration(1500, segments))
}

func TestMatchNarration_OutsideProximityWindowYieldsEmpty(t *testing.T) {
	segments := []TranscriptionSegment{
		{Text: "far away", StartTime: 0, EndTime: 1.0},
	}
	assert.Empty(t, matchNarration(10000, segments))
}

func TestMatchNarration_TieBreakPrefersSegmentEndingBefore(t *testing.T) {
	// Event at 2000ms: one segment ends at 1.5s (500ms before, ends-before),
	// another starts at 2.5s (500ms after, does not end before). Equal
	// distance; the segment ending before the event should win.
	segments := []TranscriptionSegment{
		{Text: "after", StartTime: 2.5, EndTime: 3.0},
		{Text: "before", StartTime: 1.0, EndTime: 1.5},
	}
	assert.Equal(t, "before", matchNarration(2000, segments))
}

func TestMatchNarration_SingleCandidateTriviallyAccepted(t *testing.T) {
	segments := []TranscriptionSegment{
		{Text: "only one", StartTime: 5.0, EndTime: 5.5},
	}
	assert.Equal(t, "only one", matchNarration(6000, segments))
}

func TestMatchNarration_NoSegmentsYieldsEmpty(t *testing.T) {
	assert.Empty(t, matchNarration(0, nil))
}

func TestBuildManifest_FrameAlignmentNeverPostdatesEvent(t *testing.T) {
	frames := map[int64]string{0: "frame-000000.png", 1000: "frame-001000.png", 2000: "frame-002000.png"}
	frameAt := func(relativeMs int64) string {
		var best int64 = -1
		var path string
		for ms, p := range frames {
			if ms <= relativeMs && ms > best {
				best, path = ms, p
			}
		}
		return path
	}

	events := []Event{
		{Kind: EventClick, RelativeMs: 1500, Data: map[string]any{"x": 1, "y": 1}},
	}
	m := BuildManifest("sess1", "test", 0, 3000, events, frameAt, 3, "", nil)
	assert.Equal(t, "frame-001000.png", m.Entries[0].Frame)
}

func TestBuildManifest_AbsentFrameWhenNoneCapturedYet(t *testing.T) {
	frameAt := func(relativeMs int64) string { return "" }
	events := []Event{{Kind: EventClick, RelativeMs: 50}}
	m := BuildManifest("sess1", "", 0, 100, events, frameAt, 0, "", nil)
	assert.Empty(t, m.Entries[0].Frame)
	assert.Equal(t, 1, m.EventCount)
}
