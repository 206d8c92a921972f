package turnqueue

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestTasksRunInAdmissionOrder(t *testing.T) {
	q := New(nil)
	defer q.Close()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		i := i
		wg.Add(1)
		q.Enqueue(func() error {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}
	wg.Wait()

	for i, got := range order {
		if got != i {
			t.Fatalf("task %d ran out of order: got %d", i, got)
		}
	}
}

func TestNextTaskWaitsForCurrentCompletion(t *testing.T) {
	q := New(nil)
	defer q.Close()

	firstDone := make(chan struct{})
	secondRan := make(chan struct{})
	overlap := false

	q.Enqueue(func() error {
		select {
		case <-secondRan:
			overlap = true
		case <-time.After(50 * time.Millisecond):
		}
		close(firstDone)
		return nil
	})
	q.Enqueue(func() error {
		close(secondRan)
		return nil
	})

	<-firstDone
	<-secondRan
	if overlap {
		t.Fatal("second task started before first completed")
	}
}

func TestTaskErrorDoesNotBlockQueue(t *testing.T) {
	errs := make(chan error, 2)
	q := New(func(err error) { errs <- err })
	defer q.Close()

	ran := make(chan struct{})
	q.Enqueue(func() error { return errors.New("boom") })
	q.Enqueue(func() error { close(ran); return nil })

	select {
	case err := <-errs:
		if err.Error() != "boom" {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("error callback never fired")
	}
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("queue stalled after task error")
	}
}

func TestTaskPanicIsReported(t *testing.T) {
	errs := make(chan error, 1)
	q := New(func(err error) { errs <- err })
	defer q.Close()

	ran := make(chan struct{})
	q.Enqueue(func() error { panic("kaboom") })
	q.Enqueue(func() error { close(ran); return nil })

	select {
	case err := <-errs:
		if want := fmt.Sprintf("turn processing panic: %v", "kaboom"); err.Error() != want {
			t.Fatalf("unexpected panic error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("panic was not reported")
	}
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("queue stalled after panic")
	}
}

func TestCloseIsIdempotentAndDropsLateTasks(t *testing.T) {
	q := New(nil)
	q.Close()
	q.Close()

	q.Enqueue(func() error {
		t.Error("task ran after close")
		return nil
	})
	time.Sleep(20 * time.Millisecond)
}
