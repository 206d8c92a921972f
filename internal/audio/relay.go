package audio

import "sync"

// Relay queues inbound audio frames until the downstream sink is ready, then
// flushes them in arrival order and forwards subsequent frames directly.
// After Shutdown, frames are discarded; audio arriving once the recognizer is
// gone is unrecoverable and must not accumulate.
type Relay struct {
	mu      sync.Mutex
	sink    func(frame []byte) error
	pending [][]byte
	open    bool
	closed  bool
}

func NewRelay(sink func(frame []byte) error) *Relay {
	return &Relay{sink: sink}
}

// Submit forwards one frame, buffering while the sink is not yet open.
// Frames are never reordered or duplicated.
func (r *Relay) Submit(frame []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	if !r.open {
		buf := make([]byte, len(frame))
		copy(buf, frame)
		r.pending = append(r.pending, buf)
		return nil
	}
	return r.sink(frame)
}

// Open flushes the backlog in original order and switches to pass-through.
// The first flush error stops the flush and is returned; remaining frames
// stay queued for the caller to decide.
func (r *Relay) Open() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.open {
		return nil
	}
	for len(r.pending) > 0 {
		frame := r.pending[0]
		if err := r.sink(frame); err != nil {
			return err
		}
		r.pending = r.pending[1:]
	}
	r.pending = nil
	r.open = true
	return nil
}

// Shutdown drops any queued frames and turns Submit into a no-op.
func (r *Relay) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.pending = nil
}

// Buffered reports the number of frames waiting for the sink to open.
func (r *Relay) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
