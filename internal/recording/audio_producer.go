package recording

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/deskstratum/agent/internal/envelope"
	"github.com/deskstratum/agent/internal/logging"
)

var audioLog = logging.Named("recording.audio")

const audioFlushGrace = 200 * time.Millisecond

// AudioProducer spawns a platform-native recorder writing to outputPath and
// stops it on request, waiting for the file to flush (§4.C11 audio producer,
// adapted from the teacher's Recorder.recordAudio platform dispatch).
type AudioProducer struct {
	outputPath string
	cmd        *exec.Cmd
	done       chan error
}

func NewAudioProducer(outputPath string) *AudioProducer {
	return &AudioProducer{outputPath: outputPath}
}

// Start launches the native recorder. The first available tool per platform
// wins; an unsupported platform or missing tool is not fatal to the session,
// only to the audio track.
func (a *AudioProducer) Start(ctx context.Context) error {
	cmd, err := buildRecorderCommand(a.outputPath)
	if err != nil {
		return err
	}
	a.cmd = cmd
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return envelope.Wrap(envelope.KindScriptFailed, err, "failed to start audio recorder")
	}
	a.done = make(chan error, 1)
	go func() { a.done <- cmd.Wait() }()
	return nil
}

// Stop sends a soft termination signal and waits up to 200ms for the file to
// flush (§5 cancellation and timeouts). Returns "" when the resulting file is
// empty or absent, matching "no audio" semantics.
func (a *AudioProducer) Stop() string {
	if a.cmd == nil || a.cmd.Process == nil {
		return ""
	}
	a.cmd.Process.Signal(os.Interrupt)

	select {
	case <-a.done:
	case <-time.After(audioFlushGrace):
		a.cmd.Process.Kill()
	}

	info, err := os.Stat(a.outputPath)
	if err != nil || info.Size() == 0 {
		return ""
	}
	return a.outputPath
}

func buildRecorderCommand(outputPath string) (*exec.Cmd, error) {
	switch runtime.GOOS {
	case "darwin":
		if _, err := exec.LookPath("sox"); err == nil {
			return exec.Command("sox", "-d", "-r", "16000", "-c", "1", "-b", "16", outputPath), nil
		}
		if _, err := exec.LookPath("ffmpeg"); err == nil {
			return exec.Command("ffmpeg", "-f", "avfoundation", "-i", ":0", "-ar", "16000", "-ac", "1", "-y", outputPath), nil
		}
		return nil, envelope.New(envelope.KindAppNotFound, "install sox or ffmpeg for audio recording")

	case "linux":
		if _, err := exec.LookPath("arecord"); err == nil {
			return exec.Command("arecord", "-f", "S16_LE", "-r", "16000", "-c", "1", outputPath), nil
		}
		if _, err := exec.LookPath("sox"); err == nil {
			return exec.Command("sox", "-d", "-r", "16000", "-c", "1", "-b", "16", outputPath), nil
		}
		return nil, envelope.New(envelope.KindAppNotFound, "install arecord or sox for audio recording")

	case "windows":
		if _, err := exec.LookPath("ffmpeg"); err == nil {
			return exec.Command("ffmpeg", "-f", "dshow", "-i", "audio=Microphone", "-ar", "16000", "-ac", "1", "-y", outputPath), nil
		}
		return nil, envelope.New(envelope.KindAppNotFound, "install ffmpeg for audio recording")

	default:
		return nil, envelope.New(envelope.KindAppNotFound, "unsupported platform for audio recording: %s", runtime.GOOS)
	}
}
