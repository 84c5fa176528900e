package recording

import "sort"

const narrationProximityWindowMs = 3000

// BuildManifest joins events, the frame map, and transcription segments into
// a Manifest (§4.C11 manifest builder). events must already be in emission
// order; frameAt resolves the most recent frame at-or-before a given
// session-relative millisecond offset.
func BuildManifest(id, description string, startTime, endTime int64, events []Event, frameAt func(relativeMs int64) string, frameCount int, audioFile string, segments []TranscriptionSegment) Manifest {
	entries := make([]ManifestEntry, 0, len(events))
	for _, ev := range events {
		entries = append(entries, ManifestEntry{
			Frame:     frameAt(ev.RelativeMs),
			Event:     ev,
			Narration: matchNarration(ev.RelativeMs, segments),
		})
	}

	return Manifest{
		ID:          id,
		Description: description,
		StartTime:   startTime,
		EndTime:     endTime,
		DurationMs:  endTime - startTime,
		FrameCount:  frameCount,
		EventCount:  len(events),
		AudioFile:   audioFile,
		Entries:     entries,
	}
}

// matchNarration aligns one event against the transcription segments using
// the two-pass rule from §4.C11: an overlap pass, then a nearest-edge
// fallback within a 3s window that prefers segments ending before the event.
func matchNarration(relativeMs int64, segments []TranscriptionSegment) string {
	if len(segments) == 0 {
		return ""
	}

	for _, seg := range segments {
		startMs := int64(seg.StartTime * 1000)
		endMs := int64(seg.EndTime * 1000)
		if relativeMs >= startMs && relativeMs <= endMs {
			return seg.Text
		}
	}

	type candidate struct {
		seg      TranscriptionSegment
		distance int64
		endsBefore bool
	}
	var candidates []candidate
	for _, seg := range segments {
		startMs := int64(seg.StartTime * 1000)
		endMs := int64(seg.EndTime * 1000)
		dist := distanceToRange(relativeMs, startMs, endMs)
		if dist > narrationProximityWindowMs {
			continue
		}
		candidates = append(candidates, candidate{seg: seg, distance: dist, endsBefore: endMs <= relativeMs})
	}
	if len(candidates) == 0 {
		return ""
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		// tie: prefer the segment that ends before the event.
		if candidates[i].endsBefore != candidates[j].endsBefore {
			return candidates[i].endsBefore
		}
		return false
	})
	return candidates[0].seg.Text
}

func distanceToRange(ms, start, end int64) int64 {
	if ms < start {
		return start - ms
	}
	if ms > end {
		return ms - end
	}
	return 0
}
