package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"github.com/lokutor-ai/lokutor-dictation/pkg/audio"
)

// HTTPTranscriber posts a window as a WAV file to an OpenAI-compatible
// transcription endpoint, grounded on the teacher's GroqSTT client.
type HTTPTranscriber struct {
	client *http.Client
	url    string
	apiKey string
	model  string
	name   string
}

// NewHTTPTranscriber builds a client-backed Transcriber. name identifies
// the worker instance in logs (e.g. "whisper-0").
func NewHTTPTranscriber(name, url, apiKey, model string) *HTTPTranscriber {
	return &HTTPTranscriber{
		client: http.DefaultClient,
		url:    url,
		apiKey: apiKey,
		model:  model,
		name:   name,
	}
}

func (h *HTTPTranscriber) Name() string { return h.name }

func (h *HTTPTranscriber) Transcribe(ctx context.Context, window AudioWindow) (TextEvent, error) {
	wavData := audio.EncodeWAV(window.Samples, window.SampleRate)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("model", h.model); err != nil {
		return TextEvent{}, err
	}
	if window.Prompt != "" {
		if err := writer.WriteField("prompt", window.Prompt); err != nil {
			return TextEvent{}, err
		}
	}

	part, err := writer.CreateFormFile("file", "window.wav")
	if err != nil {
		return TextEvent{}, err
	}
	if _, err := io.Copy(part, bytes.NewReader(wavData)); err != nil {
		return TextEvent{}, err
	}
	if err := writer.Close(); err != nil {
		return TextEvent{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, body)
	if err != nil {
		return TextEvent{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return TextEvent{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody interface{}
		json.NewDecoder(resp.Body).Decode(&errBody)
		return TextEvent{}, fmt.Errorf("transcribe: %s returned status %d: %v", h.name, resp.StatusCode, errBody)
	}

	var decoded struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return TextEvent{}, err
	}

	return TextEvent{
		Segments:      []TextSegment{{Text: decoded.Text, StartOffsetMs: 0, EndOffsetMs: (window.EndTime - window.StartTime) * 1000}},
		AudioSourceID: window.SourceID,
		AudioStart:    window.StartTime,
		AudioEnd:      window.EndTime,
		EventID:       uuid.NewString(),
	}, nil
}
