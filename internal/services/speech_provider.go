package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yungbote/studytrack-backend/internal/logger"
)

// SpeechProvider turns a local recording into plain transcript text. It is
// the first half of the pipeline transcription engine.
type SpeechProvider interface {
	TranscribeFile(ctx context.Context, path string, credentialsJSON string) (string, error)
	Close() error
}

type speechProvider struct {
	log        *logger.Logger
	maxRetries int

	mu     sync.Mutex
	client *speech.Client
}

func NewSpeechProvider(log *logger.Logger) SpeechProvider {
	return &speechProvider{
		log:        log.With("service", "SpeechProvider"),
		maxRetries: 4,
	}
}

func (s *speechProvider) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// defaultClient lazily builds a client from ambient credentials
// (GOOGLE_APPLICATION_CREDENTIALS et al).
func (s *speechProvider) defaultClient(ctx context.Context) (*speech.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	var (
		c   *speech.Client
		err error
	)
	if creds != "" {
		c, err = speech.NewClient(ctx, option.WithCredentialsFile(creds))
	} else {
		c, err = speech.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	s.client = c
	return c, nil
}

func (s *speechProvider) TranscribeFile(ctx context.Context, path string, credentialsJSON string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	audio, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read recording: %w", err)
	}
	if len(audio) == 0 {
		return "", nil
	}

	client, closeClient, err := s.clientFor(ctx, credentialsJSON)
	if err != nil {
		return "", err
	}
	if closeClient != nil {
		defer closeClient()
	}

	req := &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:               "en-US",
			EnableAutomaticPunctuation: true,
			Encoding:                   inferSpeechEncoding(path),
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	resp, err := s.retryLR(ctx, func() (*speechpb.LongRunningRecognizeResponse, error) {
		op, err := client.LongRunningRecognize(ctx, req)
		if err != nil {
			return nil, err
		}
		return op.Wait(ctx)
	})
	if err != nil {
		return "", fmt.Errorf("speech longrunningrecognize: %w", err)
	}

	var full strings.Builder
	for _, r := range resp.GetResults() {
		if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
			continue
		}
		text := strings.TrimSpace(r.Alternatives[0].Transcript)
		if text == "" {
			continue
		}
		if full.Len() > 0 {
			full.WriteString(" ")
		}
		full.WriteString(text)
	}
	return full.String(), nil
}

// clientFor prefers the profile-stored credentials blob; the short-lived
// client it builds is closed by the caller.
func (s *speechProvider) clientFor(ctx context.Context, credentialsJSON string) (*speech.Client, func(), error) {
	creds := strings.TrimSpace(credentialsJSON)
	if creds == "" {
		c, err := s.defaultClient(ctx)
		return c, nil, err
	}
	c, err := speech.NewClient(ctx, option.WithCredentialsJSON([]byte(creds)))
	if err != nil {
		return nil, nil, fmt.Errorf("speech client (profile creds): %w", err)
	}
	return c, func() { _ = c.Close() }, nil
}

func inferSpeechEncoding(path string) speechpb.RecognitionConfig_AudioEncoding {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return speechpb.RecognitionConfig_LINEAR16
	case ".flac":
		return speechpb.RecognitionConfig_FLAC
	case ".mp3":
		return speechpb.RecognitionConfig_MP3
	case ".ogg", ".opus":
		return speechpb.RecognitionConfig_OGG_OPUS
	default:
		// leave unspecified; the API can often auto-detect
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

func (s *speechProvider) retryLR(ctx context.Context, fn func() (*speechpb.LongRunningRecognizeResponse, error)) (*speechpb.LongRunningRecognizeResponse, error) {
	backoff := 750 * time.Millisecond
	var last error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		last = err

		code := status.Code(err)
		if code != codes.Unavailable && code != codes.ResourceExhausted && code != codes.DeadlineExceeded {
			return nil, err
		}
		if attempt == s.maxRetries {
			break
		}
		time.Sleep(backoff)
		backoff *= 2
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
	return nil, last
}
