package providers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"actubot/core/logger"
)

// Audio renders text to an MP3 through Google Cloud text-to-speech and
// serves it from the local media directory.
type Audio struct {
	client   *texttospeech.Client
	language string
	voice    string
	mediaDir string
	baseURL  string
}

// NewAudio builds the text-to-speech provider. Credentials come from
// GOOGLE_APPLICATION_CREDENTIALS; the media directory is created if missing.
func NewAudio(ctx context.Context, language, voice, mediaDir, baseURL string) (*Audio, error) {
	var opts []option.ClientOption
	if credentials := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("audio: create tts client: %w", err)
	}
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		client.Close()
		return nil, fmt.Errorf("audio: create media dir: %w", err)
	}
	return &Audio{
		client:   client,
		language: language,
		voice:    voice,
		mediaDir: mediaDir,
		baseURL:  baseURL,
	}, nil
}

// For synthesizes the text and returns the URL of the rendered MP3.
func (a *Audio) For(ctx context.Context, text string) (string, error) {
	start := time.Now()
	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: a.language,
			Name:         a.voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	}

	resp, err := a.client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: audio: synthesize: %v", ErrUnavailable, err)
	}

	name := uuid.NewString() + ".mp3"
	if err := os.WriteFile(filepath.Join(a.mediaDir, name), resp.AudioContent, 0o644); err != nil {
		return "", fmt.Errorf("audio: write media file: %w", err)
	}

	logger.Debug(ctx, "provider.audio", "audio.render",
		slog.String("status", "ok"),
		slog.Int("bytes", len(resp.AudioContent)),
		slog.Duration("duration", logger.RoundMS(logger.Took(start))),
	)
	return a.baseURL + "/" + name, nil
}

// Close releases the underlying gRPC connection.
func (a *Audio) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}
