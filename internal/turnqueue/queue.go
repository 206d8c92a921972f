// Package turnqueue serializes turn processing: recognized utterances can
// arrive faster than they can be answered, and replies must stay in the order
// callers spoke. A single worker drains tasks FIFO; enqueue never blocks the
// producer; one task's failure never blocks the next.
package turnqueue

import (
	"fmt"
	"sync"
)

// Task processes one recognized utterance end to end.
type Task func() error

// Queue runs tasks one at a time in admission order.
type Queue struct {
	mu      sync.Mutex
	pending []Task
	wake    chan struct{}
	done    chan struct{}
	closed  bool
	onError func(error)
	wg      sync.WaitGroup
}

// New starts the queue worker. onError receives each task failure; it may be
// nil.
func New(onError func(error)) *Queue {
	q := &Queue{
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		onError: onError,
	}
	q.wg.Add(1)
	go q.drain()
	return q
}

// Enqueue admits a task without blocking. Tasks enqueued after Close are
// dropped.
func (q *Queue) Enqueue(task Task) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, task)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Close stops the worker after the in-flight task finishes and waits for it
// to exit. Idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	close(q.done)
	q.wg.Wait()
}

func (q *Queue) drain() {
	defer q.wg.Done()
	for {
		select {
		case <-q.done:
			return
		default:
		}
		task := q.next()
		if task == nil {
			select {
			case <-q.wake:
				continue
			case <-q.done:
				return
			}
		}
		q.run(task)
	}
}

func (q *Queue) next() Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	task := q.pending[0]
	q.pending = q.pending[1:]
	return task
}

func (q *Queue) run(task Task) {
	defer func() {
		if r := recover(); r != nil && q.onError != nil {
			q.onError(fmt.Errorf("turn processing panic: %v", r))
		}
	}()
	if err := task(); err != nil && q.onError != nil {
		q.onError(err)
	}
}
