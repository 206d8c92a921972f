package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

type deepgramRecognizer struct {
	apiKey     string
	baseURL    string
	model      string
	sampleRate int
	channels   int
	logger     *slog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	results chan Utterance
	done    chan struct{}
	closed  bool
}

// listenResult is the subset of the Deepgram live response we consume.
type listenResult struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// NewDeepgramRecognizer streams caller PCM to the Deepgram live listen
// endpoint over a websocket and emits finalized utterances.
func NewDeepgramRecognizer(apiKey, baseURL, model string, sampleRate, channels int, logger *slog.Logger) Recognizer {
	if baseURL == "" {
		baseURL = "wss://api.deepgram.com"
	}
	return &deepgramRecognizer{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		sampleRate: sampleRate,
		channels:   channels,
		logger:     logger.With(slog.String("component", "stt.deepgram")),
		results:    make(chan Utterance, 16),
		done:       make(chan struct{}),
	}
}

func (d *deepgramRecognizer) Start(ctx context.Context) error {
	params := url.Values{}
	if d.model != "" {
		params.Set("model", d.model)
	}
	params.Set("encoding", "linear16")
	params.Set("sample_rate", strconv.Itoa(d.sampleRate))
	params.Set("channels", strconv.Itoa(d.channels))
	params.Set("interim_results", "false")
	params.Set("smart_format", "true")

	endpoint := strings.TrimSuffix(d.baseURL, "/") + "/v1/listen?" + params.Encode()
	header := http.Header{}
	header.Set("Authorization", "Token "+d.apiKey)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial listen endpoint (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("dial listen endpoint: %w", err)
	}
	d.mu.Lock()
	d.conn = conn
	d.mu.Unlock()

	go d.readLoop()
	return nil
}

func (d *deepgramRecognizer) readLoop() {
	defer close(d.results)
	for {
		_, data, err := d.conn.ReadMessage()
		if err != nil {
			select {
			case <-d.done:
			default:
				d.logger.Warn("listen stream closed", slog.String("error", err.Error()))
			}
			return
		}
		var result listenResult
		if err := json.Unmarshal(data, &result); err != nil {
			d.logger.Warn("undecodable listen message", slog.String("error", err.Error()))
			continue
		}
		if !result.IsFinal || len(result.Channel.Alternatives) == 0 {
			continue
		}
		alt := result.Channel.Alternatives[0]
		if strings.TrimSpace(alt.Transcript) == "" {
			continue
		}
		select {
		case d.results <- Utterance{Text: alt.Transcript, Confidence: alt.Confidence}:
		case <-d.done:
			return
		}
	}
}

func (d *deepgramRecognizer) Send(pcm []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil || d.closed {
		return fmt.Errorf("recognizer not started")
	}
	return d.conn.WriteMessage(websocket.BinaryMessage, pcm)
}

func (d *deepgramRecognizer) Transcripts() <-chan Utterance {
	return d.results
}

func (d *deepgramRecognizer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	close(d.done)
	if d.conn == nil {
		close(d.results)
		return nil
	}
	_ = d.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
	return d.conn.Close()
}
