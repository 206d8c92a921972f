// Package call orchestrates one caller connection: audio in, transcripts
// through the turn queue, and interleaved reply text and audio out.
package call

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Channel is the caller-facing side of a connection. Events are JSON text
// frames, audio is binary frames. Implementations must tolerate sends after
// the peer is gone by reporting Open false and swallowing the write.
type Channel interface {
	SendEvent(v any) error
	SendAudio(pcm []byte) error
	Open() bool
	Close() error
}

// wsChannel serializes all writes onto one websocket connection.
type wsChannel struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func newWSChannel(conn *websocket.Conn) *wsChannel {
	return &wsChannel{conn: conn}
}

func (c *wsChannel) SendEvent(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.closed = true
		return err
	}
	return nil
}

func (c *wsChannel) SendAudio(pcm []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, pcm); err != nil {
		c.closed = true
		return err
	}
	return nil
}

func (c *wsChannel) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *wsChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
