package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/studytrack-backend/internal/logger"
)

// OpenAIClient is the thin HTTP client both transcription engines share.
// An apiKey argument overrides the boot-time key; the profile's stored key
// is passed through here so a user-supplied key wins over the environment.
type OpenAIClient interface {
	GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any, apiKey string) (map[string]any, error)
	AnalyzeAudioJSON(ctx context.Context, system, audioPath, schemaName string, schema map[string]any, apiKey string) (map[string]any, error)
}

type openAIClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	audioModel string
	httpClient *http.Client
	maxRetries int
}

func NewOpenAIClient(log *logger.Logger) OpenAIClient {
	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	audioModel := os.Getenv("OPENAI_AUDIO_MODEL")
	if audioModel == "" {
		audioModel = "gpt-4o-audio-preview"
	}

	timeoutSec := 180
	if v := os.Getenv("OPENAI_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}
	maxRetries := 4
	if v := os.Getenv("OPENAI_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &openAIClient{
		log:        log.With("service", "OpenAIClient"),
		baseURL:    baseURL,
		apiKey:     os.Getenv("OPENAI_API_KEY"),
		model:      model,
		audioModel: audioModel,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func isRetryableHTTP(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

func isRetryableErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var httpErr *openAIHTTPError
	if errors.As(err, &httpErr) {
		return isRetryableHTTP(httpErr.StatusCode)
	}
	return false
}

func jitterSleep(base time.Duration) time.Duration {
	// +/- 20%
	if base <= 0 {
		return 0
	}
	j := 0.2
	delta := base.Seconds() * j
	low := base.Seconds() - delta
	high := base.Seconds() + delta
	if low < 0 {
		low = 0
	}
	v := low + rand.Float64()*(high-low)
	return time.Duration(v * float64(time.Second))
}

func (c *openAIClient) resolveKey(apiKey string) (string, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		key = c.apiKey
	}
	if key == "" {
		return "", errors.New("missing OpenAI API key")
	}
	return key, nil
}

func (c *openAIClient) doOnce(ctx context.Context, method, path, key string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *openAIClient) do(ctx context.Context, method, path, key string, body, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, key, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}

		if !isRetryableErr(err) {
			return err
		}
		if attempt == c.maxRetries {
			return err
		}

		sleepFor := backoff
		if resp != nil {
			ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
			if ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs > 0 {
					sleepFor = time.Duration(secs) * time.Second
				}
			}
		}
		if sleepFor > 10*time.Second {
			sleepFor = 10 * time.Second
		}
		sleepFor = jitterSleep(sleepFor)

		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

// ---- Structured JSON over text ----

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature,omitempty"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
	Modalities     []string       `json:"modalities,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
}

func jsonSchemaFormat(schemaName string, schema map[string]any) map[string]any {
	return map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   schemaName,
			"schema": schema,
			"strict": true,
		},
	}
}

func (c *openAIClient) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any, apiKey string) (map[string]any, error) {
	if schemaName == "" || schema == nil {
		return nil, errors.New("schemaName and schema required")
	}
	key, err := c.resolveKey(apiKey)
	if err != nil {
		return nil, err
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    0.2,
		ResponseFormat: jsonSchemaFormat(schemaName, schema),
	}

	var resp chatResponse
	if err := c.do(ctx, "POST", "/v1/chat/completions", key, req, &resp); err != nil {
		return nil, err
	}
	return decodeChatJSON(resp)
}

// AnalyzeAudioJSON sends the recording itself to an audio-understanding
// model and asks for schema-constrained JSON in one pass.
func (c *openAIClient) AnalyzeAudioJSON(ctx context.Context, system, audioPath, schemaName string, schema map[string]any, apiKey string) (map[string]any, error) {
	if schemaName == "" || schema == nil {
		return nil, errors.New("schemaName and schema required")
	}
	key, err := c.resolveKey(apiKey)
	if err != nil {
		return nil, err
	}

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("recording %q is empty", audioPath)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(audioPath)), ".")
	if format == "m4a" {
		format = "mp4"
	}

	req := chatRequest{
		Model: c.audioModel,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: []map[string]any{
				{
					"type": "input_audio",
					"input_audio": map[string]any{
						"data":   base64.StdEncoding.EncodeToString(audio),
						"format": format,
					},
				},
			}},
		},
		Modalities:     []string{"text"},
		ResponseFormat: jsonSchemaFormat(schemaName, schema),
	}

	var resp chatResponse
	if err := c.do(ctx, "POST", "/v1/chat/completions", key, req, &resp); err != nil {
		return nil, err
	}
	return decodeChatJSON(resp)
}

func decodeChatJSON(resp chatResponse) (map[string]any, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return nil, fmt.Errorf("model refused: %s", msg.Refusal)
	}
	if strings.TrimSpace(msg.Content) == "" {
		return nil, fmt.Errorf("empty model response")
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(msg.Content), &obj); err != nil {
		return nil, fmt.Errorf("failed to parse model JSON: %w; text=%s", err, msg.Content)
	}
	return obj, nil
}
