package recording

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioProducer_StopReturnsEmptyWhenFileNeverWritten(t *testing.T) {
	a := NewAudioProducer(filepath.Join(t.TempDir(), "audio.wav"))
	assert.Empty(t, a.Stop())
}

func TestAudioProducer_StopReturnsEmptyForZeroByteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.wav")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	a := NewAudioProducer(path)
	a.cmd = exec.Command("sh", "-c", "exit 0")
	require.NoError(t, a.cmd.Start())
	a.done = make(chan error, 1)
	go func() { a.done <- a.cmd.Wait() }()
	time.Sleep(20 * time.Millisecond)

	assert.Empty(t, a.Stop())
}

func TestAudioProducer_StopReturnsPathForNonEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF...."), 0o644))

	a := NewAudioProducer(path)
	a.cmd = exec.Command("sh", "-c", "exit 0")
	require.NoError(t, a.cmd.Start())
	a.done = make(chan error, 1)
	go func() { a.done <- a.cmd.Wait() }()
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, path, a.Stop())
}
