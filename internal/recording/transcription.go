package recording

import (
	"context"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Transcriber turns a WAV recording into timed segments.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) ([]TranscriptionSegment, error)
}

// WhisperTranscriber calls OpenAI's audio transcription endpoint (D2),
// replacing the teacher's hand-rolled multipart POST to the same API with
// the official SDK client, constructed the same way api_openai.go builds
// its chat client.
type WhisperTranscriber struct {
	client openai.Client
	model  string
}

func NewWhisperTranscriber(apiKey string) *WhisperTranscriber {
	return &WhisperTranscriber{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.AudioModelWhisper1,
	}
}

// Transcribe requests a verbose_json transcription so per-segment timing
// survives for the manifest builder's alignment pass.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, wavPath string) ([]TranscriptionSegment, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	resp, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:           f,
		Model:          t.model,
		ResponseFormat: openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, err
	}

	segments := make([]TranscriptionSegment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, TranscriptionSegment{
			Text:      s.Text,
			StartTime: s.Start,
			EndTime:   s.End,
		})
	}
	return segments, nil
}
