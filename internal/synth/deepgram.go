package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const speakChunkSize = 8192

type deepgramSynth struct {
	apiKey     string
	baseURL    string
	model      string
	sampleRate int
	channels   int
	client     *http.Client
}

// NewDeepgramSynth builds a synthesizer backed by the Deepgram speak REST
// endpoint. Audio is requested as raw linear16 PCM and relayed in fixed
// size chunks as the response body arrives.
func NewDeepgramSynth(apiKey, baseURL, model string, sampleRate, channels int) Synthesizer {
	if baseURL == "" {
		baseURL = "https://api.deepgram.com"
	}
	return &deepgramSynth{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		sampleRate: sampleRate,
		channels:   channels,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (d *deepgramSynth) Synthesize(ctx context.Context, req SynthRequest) (<-chan SynthChunk, <-chan error) {
	chunks := make(chan SynthChunk)
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)

		body, err := d.request(ctx, req.Text)
		if err != nil {
			errs <- err
			return
		}
		defer body.Close()

		buf := make([]byte, speakChunkSize)
		sequence := 0
		for {
			n, readErr := body.Read(buf)
			if n > 0 {
				pcm := make([]byte, n)
				copy(pcm, buf[:n])
				chunk := SynthChunk{
					SessionID:  req.SessionID,
					Sequence:   sequence,
					SampleRate: d.sampleRate,
					Channels:   d.channels,
					PCM:        pcm,
					Final:      readErr == io.EOF,
				}
				select {
				case chunks <- chunk:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
				sequence++
			}
			if readErr == io.EOF {
				return
			}
			if readErr != nil {
				errs <- readErr
				return
			}
		}
	}()
	return chunks, errs
}

func (d *deepgramSynth) request(ctx context.Context, text string) (io.ReadCloser, error) {
	params := url.Values{}
	if d.model != "" {
		params.Set("model", d.model)
	}
	params.Set("encoding", "linear16")
	params.Set("container", "none")
	params.Set("sample_rate", strconv.Itoa(d.sampleRate))

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.baseURL+"/v1/speak?"+params.Encode(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speak request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("speak request returned %d: %s", resp.StatusCode, detail)
	}
	return resp.Body, nil
}
