package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SampleRate is the PCM sample rate requested from the synthesis endpoint.
// Callers wrapping the raw linear16 output in a WAV container need it.
const SampleRate = 24000

type DeepgramConfig struct {
	APIKey   string
	BaseURL  string
	STTModel string
	Language string
	Timeout  time.Duration
}

// DeepgramProvider implements Transcriber and Synthesizer over Deepgram's
// prerecorded listen and speak REST endpoints.
type DeepgramProvider struct {
	cfg        DeepgramConfig
	httpClient *http.Client
}

func NewDeepgramProvider(cfg DeepgramConfig) *DeepgramProvider {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.deepgram.com"
	}
	if strings.TrimSpace(cfg.STTModel) == "" {
		cfg.STTModel = "nova-2"
	}
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = "en-US"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &DeepgramProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe sends prerecorded audio to the listen endpoint and returns the
// best transcript. An empty transcript is returned as "" with no error;
// the caller decides how to phrase that to the user.
func (p *DeepgramProvider) Transcribe(ctx context.Context, audio []byte) (string, error) {
	q := url.Values{}
	q.Set("model", p.cfg.STTModel)
	q.Set("language", p.cfg.Language)
	q.Set("smart_format", "true")
	q.Set("punctuate", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/listen?"+q.Encode(), bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Token "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepgram listen: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("deepgram listen status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed listenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("deepgram listen decode: %w", err)
	}
	channels := parsed.Results.Channels
	if len(channels) == 0 || len(channels[0].Alternatives) == 0 {
		return "", fmt.Errorf("deepgram listen: no transcript in response")
	}
	return strings.TrimSpace(channels[0].Alternatives[0].Transcript), nil
}

// Synthesize renders text with the voice mapped from the selector and
// returns raw linear16 PCM at SampleRate.
func (p *DeepgramProvider) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	q := url.Values{}
	q.Set("model", ModelForVoice(voice))
	q.Set("encoding", "linear16")
	q.Set("sample_rate", fmt.Sprintf("%d", SampleRate))

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/speak?"+q.Encode(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepgram speak: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("deepgram speak status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("deepgram speak read: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("deepgram speak: empty audio response")
	}
	return audio, nil
}
