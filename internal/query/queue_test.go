package query

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestQueueDispatchReturnsResult(t *testing.T) {
	q := NewQueue(2, func(_ context.Context, req *Request) *Response {
		return &Response{SessionID: req.SessionID, ResponseText: "done"}
	})
	q.Start(context.Background())
	defer q.Stop()

	resp := q.Dispatch(context.Background(), &Request{Prompt: "hi"})
	if resp.ResponseText != "done" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.SessionID == "" {
		t.Error("expected generated session id before lane assignment")
	}
}

func TestQueueSerializesSameSession(t *testing.T) {
	var active, maxActive int32
	q := NewQueue(8, func(_ context.Context, req *Request) *Response {
		cur := atomic.AddInt32(&active, 1)
		for {
			prev := atomic.LoadInt32(&maxActive)
			if cur <= prev || atomic.CompareAndSwapInt32(&maxActive, prev, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return &Response{SessionID: req.SessionID}
	})
	q.Start(context.Background())
	defer q.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Dispatch(context.Background(), &Request{SessionID: "same", Prompt: "x"})
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&maxActive); got != 1 {
		t.Errorf("expected same-session requests serialized, saw %d concurrent", got)
	}
}

func TestQueueParallelAcrossSessions(t *testing.T) {
	start := make(chan struct{})
	var both sync.WaitGroup
	both.Add(2)
	q := NewQueue(4, func(_ context.Context, req *Request) *Response {
		both.Done()
		<-start
		return &Response{SessionID: req.SessionID}
	})
	q.Start(context.Background())
	defer q.Stop()

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for _, id := range []string{"a", "b"} {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				q.Dispatch(context.Background(), &Request{SessionID: id, Prompt: "x"})
			}(id)
		}
		wg.Wait()
		close(done)
	}()

	// Both handlers must be running at once before we release them.
	waitCh := make(chan struct{})
	go func() {
		both.Wait()
		close(waitCh)
	}()
	select {
	case <-waitCh:
	case <-time.After(2 * time.Second):
		t.Fatal("sessions did not run in parallel")
	}
	close(start)
	<-done
}

func TestQueueDispatchCancelledCaller(t *testing.T) {
	release := make(chan struct{})
	q := NewQueue(1, func(_ context.Context, req *Request) *Response {
		<-release
		return &Response{SessionID: req.SessionID}
	})
	q.Start(context.Background())
	defer func() {
		close(release)
		q.Stop()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	resp := q.Dispatch(ctx, &Request{SessionID: "s", Prompt: "x"})
	if !resp.Failed() {
		t.Error("expected failure response when caller gives up")
	}
}
