package recording

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/deskstratum/agent/internal/dispatch"
	"github.com/deskstratum/agent/internal/logging"
)

var sessionLog = logging.Named("recording.session")

// Session orchestrates the three producers and the manifest builder for one
// recording, writing output to the §6 session directory layout.
type Session struct {
	ID          string
	Description string
	dir         string

	events *EventsProducer
	frames *FrameProducer
	audio  *AudioProducer

	transcriber Transcriber

	startTime int64
	mu        sync.Mutex
	collected []Event
}

// NewSession creates the session directory (dir/frames) and wires the three
// producers. helperPath is the native event-monitor executable; dispatcher
// provides the vision stratum for screenshot capture; transcriber is nil
// when no OPENAI_API_KEY is configured.
func NewSession(id, description, dir string, helperPath string, dispatcher *dispatch.Dispatcher, transcriber Transcriber) (*Session, error) {
	framesDir := filepath.Join(dir, "frames")
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return nil, err
	}

	start := time.Now().UnixMilli()
	ep := NewEventsProducer(helperPath, start)
	fp := NewFrameProducer(newDispatcherCapturer(dispatcher), framesDir, start)

	return &Session{
		ID:          id,
		Description: description,
		dir:         dir,
		events:      ep,
		frames:      fp,
		audio:       NewAudioProducer(filepath.Join(dir, "audio.wav")),
		transcriber: transcriber,
		startTime:   start,
	}, nil
}

// Run starts all three producers and blocks collecting events until ctx is
// cancelled (the stop signal).
func (s *Session) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	if err := s.audio.Start(ctx); err != nil {
		sessionLog.Warnf("audio recording unavailable: %v", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.frames.Run(ctx, s.events.Triggers())
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range s.events.Events() {
			s.mu.Lock()
			s.collected = append(s.collected, ev)
			s.mu.Unlock()
		}
	}()

	err := s.events.Run(ctx)
	wg.Wait()
	return err
}

// Stop finalizes the audio track, runs transcription when available, builds
// the manifest, and writes manifest.json / events.json to the session
// directory (§4.C11 stop orchestration).
func (s *Session) Stop(ctx context.Context) (Manifest, error) {
	audioPath := s.audio.Stop()

	var segments []TranscriptionSegment
	if audioPath != "" && s.transcriber != nil {
		var err error
		segments, err = s.transcriber.Transcribe(ctx, audioPath)
		if err != nil {
			sessionLog.Errorf("transcription failed: %v", err)
		}
	}

	endTime := time.Now().UnixMilli()

	s.mu.Lock()
	events := append([]Event{}, s.collected...)
	s.mu.Unlock()

	audioFile := ""
	if audioPath != "" {
		audioFile = filepath.Base(audioPath)
	}

	manifest := BuildManifest(s.ID, s.Description, s.startTime, endTime, events, s.frames.FrameAt, s.frames.Count(), audioFile, segments)

	if err := writeJSON(filepath.Join(s.dir, "manifest.json"), manifest); err != nil {
		return manifest, err
	}
	if err := writeJSON(filepath.Join(s.dir, "events.json"), events); err != nil {
		return manifest, err
	}
	return manifest, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
