// Package openai wraps the OpenAI APIs used by the voice flow: Whisper
// transcription of call recordings, knowledge-prompted chat replies, and
// speech synthesis.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voice-agent/internal/observability"

	"github.com/openai/openai-go"
	openaiOption "github.com/openai/openai-go/option"
)

const supportSystemPrompt = `You are a professional voice support agent.

RULES:
- Answer ONLY using the PRODUCT KNOWLEDGE below.
- Do NOT guess or invent information.
- Keep answers short enough to be spoken aloud.
- If the answer is not clearly available, say:
  "I'll connect you to a human support agent."

PRODUCT KNOWLEDGE:
%s`

type Client struct {
	apiKey     string
	knowledge  string
	httpClient *http.Client
	logger     *observability.Logger
}

// NewClient creates an OpenAI client. knowledge is the product knowledge
// document embedded into the reply system prompt.
func NewClient(apiKey, knowledge string, logger *observability.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return &Client{
		apiKey:     apiKey,
		knowledge:  knowledge,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}, nil
}

// Transcribe downloads a call recording and sends it to Whisper. Returns
// the transcript, which may legitimately be empty for silent recordings.
func (c *Client) Transcribe(ctx context.Context, recordingURL string) (string, error) {
	audio, err := c.downloadRecording(ctx, recordingURL)
	if err != nil {
		return "", err
	}

	client := openai.NewClient(
		openaiOption.WithAPIKey(c.apiKey),
	)

	file := openai.File(bytes.NewReader(audio), "recording.wav", "audio/wav")
	params := openai.AudioTranscriptionNewParams{
		Model: openai.AudioModelWhisper1,
		File:  file,
	}
	resp, err := client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("whisper transcription failed: %w", err)
	}
	return resp.Text, nil
}

// downloadRecording fetches the recording bytes. Twilio serves recordings
// without an extension; a 404 is retried once with a .wav suffix.
func (c *Client) downloadRecording(ctx context.Context, recordingURL string) ([]byte, error) {
	audio, err := c.fetch(ctx, recordingURL)
	if err == nil {
		return audio, nil
	}
	if strings.HasSuffix(recordingURL, ".wav") {
		return nil, err
	}
	audio, retryErr := c.fetch(ctx, recordingURL+".wav")
	if retryErr != nil {
		return nil, fmt.Errorf("failed to download recording: %w", err)
	}
	return audio, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recording download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recording download returned status %d", resp.StatusCode)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording body: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("recording at %s is empty", url)
	}
	return audio, nil
}

// GenerateReply answers a support question from the product knowledge
// document. An empty reply means "no answer available".
func (c *Client) GenerateReply(ctx context.Context, userText string) (string, error) {
	client := openai.NewClient(
		openaiOption.WithAPIKey(c.apiKey),
	)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModelGPT4o,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(fmt.Sprintf(supportSystemPrompt, c.knowledge)),
			openai.UserMessage(userText),
		},
		MaxTokens:   openai.Int(250),
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply != "" {
		c.logger.Info(ctx, "Knowledge-based reply generated")
	}
	return reply, nil
}

// SynthesizeSpeech uses OpenAI's TTS API to synthesize speech from text.
func (c *Client) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	url := "https://api.openai.com/v1/audio/speech"
	jsonBody := map[string]interface{}{
		"model":           "tts-1",
		"voice":           "alloy",
		"input":           text,
		"response_format": "mp3",
	}
	bodyBytes, err := json.Marshal(jsonBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TTS request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI TTS request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OpenAI TTS error: %s", string(respBody))
	}

	return io.ReadAll(resp.Body)
}
