package query

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/user/sheetpilot/internal/types"
)

// Handler processes one request to completion.
type Handler func(ctx context.Context, req *Request) *Response

// Queue dispatches requests through per-session lanes with a global
// concurrency semaphore. Each session gets its own FIFO channel so requests
// within a session are processed strictly in order, while the semaphore
// limits total concurrent inference across all sessions.
type Queue struct {
	lanes     map[types.SessionID]chan *job
	semaphore *semaphore.Weighted
	handler   Handler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

type job struct {
	ctx    context.Context
	req    *Request
	result chan *Response
}

// NewQueue creates a Queue allowing up to maxConcurrent requests to execute
// simultaneously across all session lanes.
func NewQueue(maxConcurrent int64, handler Handler) *Queue {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &Queue{
		lanes:     make(map[types.SessionID]chan *job),
		semaphore: semaphore.NewWeighted(maxConcurrent),
		handler:   handler,
	}
}

// Start initialises the queue's context. Must be called before Dispatch.
func (q *Queue) Start(ctx context.Context) {
	q.ctx, q.cancel = context.WithCancel(ctx)
}

// Stop cancels the queue context, closes all lanes, and waits for in-flight
// work to finish.
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.mu.Lock()
	for _, lane := range q.lanes {
		close(lane)
	}
	q.lanes = make(map[types.SessionID]chan *job)
	q.mu.Unlock()
	q.wg.Wait()
}

// Dispatch routes the request into its session's lane and blocks until the
// handler produces a response. A request naming no session gets a fresh id
// before lane assignment so followups land in the same lane.
func (q *Queue) Dispatch(ctx context.Context, req *Request) *Response {
	if req.SessionID == "" {
		req.SessionID = string(types.NewSessionID())
	}

	j := &job{ctx: ctx, req: req, result: make(chan *Response, 1)}
	if err := q.enqueue(types.SessionID(req.SessionID), j); err != nil {
		return failure(req.SessionID, kindUnexpected, err)
	}

	select {
	case resp := <-j.result:
		return resp
	case <-ctx.Done():
		// The in-flight work continues; the caller just stops waiting.
		return failure(req.SessionID, kindUnexpected, ctx.Err())
	case <-q.ctx.Done():
		return failure(req.SessionID, kindUnexpected, errors.New("queue shutting down"))
	}
}

// enqueue adds the job to the session's lane, creating the lane (and its
// goroutine) on first use.
func (q *Queue) enqueue(sessionID types.SessionID, j *job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	lane, exists := q.lanes[sessionID]
	if !exists {
		lane = make(chan *job, 100)
		q.lanes[sessionID] = lane
		q.wg.Add(1)
		go q.processLane(lane)
	}

	select {
	case lane <- j:
		return nil
	default:
		return errors.New("session queue full")
	}
}

// processLane drains a single session lane, acquiring a semaphore slot
// before invoking the handler synchronously.
func (q *Queue) processLane(lane chan *job) {
	defer q.wg.Done()
	for {
		select {
		case j, ok := <-lane:
			if !ok {
				return
			}
			if err := q.semaphore.Acquire(q.ctx, 1); err != nil {
				j.result <- failure(j.req.SessionID, kindUnexpected, err)
				return
			}
			j.result <- q.handler(j.ctx, j.req)
			q.semaphore.Release(1)
		case <-q.ctx.Done():
			return
		}
	}
}
