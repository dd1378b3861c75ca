// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/ollama-chat/internal/logging"
)

var (
	// ErrBusy is returned by Submit while another request is in flight.
	ErrBusy = errors.New("a response is already being generated")

	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("coordinator closed")
)

// Stepper runs one prompt on a thread. *engine.Engine satisfies it.
type Stepper interface {
	Step(ctx context.Context, threadID, prompt string, opts ...model.Option) (string, error)
}

// Request is one prompt to run in the background.
type Request struct {
	// ID is assigned by Submit.
	ID string

	// SessionID identifies the session that issued the request, so the
	// result can be routed back even if the user has switched away.
	SessionID int

	// ThreadID is the session's thread at submission time.
	ThreadID string

	Prompt string

	// Model is bound for this request only. Empty uses the backend default.
	Model string

	SubmittedAt time.Time
}

// Result is the outcome of a Request. Exactly one of Text and Err is set.
type Result struct {
	Request Request
	Text    string
	Err     error
	Elapsed time.Duration
}

// OK reports whether the step succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator runs at most one request at a time on a background goroutine
// and hands the result back through a non-blocking Poll.
//
// The in-flight window spans from Submit to the Poll that delivers the
// result, so a caller never sees IsBusy() == false while a result it has
// not consumed is still pending.
type Coordinator struct {
	stepper Stepper
	timeout time.Duration
	log     *zap.Logger

	// One slot: there is never more than one undelivered result.
	results chan Result

	mu      sync.Mutex
	status  Status
	current Request
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTimeout bounds each step. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

// WithLogger sets the coordinator logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// New creates an idle coordinator around stepper.
func New(stepper Stepper, opts ...Option) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		stepper: stepper,
		results: make(chan Result, 1),
		status:  StatusIdle,
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.OrNop(c.log)
	return c
}

// Submit accepts req and starts it on a worker goroutine. It never blocks on
// the model. It returns ErrBusy if a request is already in flight.
func (c *Coordinator) Submit(req Request) (Request, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return req, ErrClosed
	}
	if c.status.Busy() {
		return req, ErrBusy
	}

	req.ID = uuid.NewString()
	req.SubmittedAt = time.Now()
	c.current = req
	c.setStatusLocked(StatusPending)

	c.wg.Add(1)
	go c.run(req)

	c.log.Debug("request accepted",
		zap.String("id", req.ID),
		zap.Int("session", req.SessionID),
		zap.String("thread", req.ThreadID),
		zap.String("model", req.Model))
	return req, nil
}

// Poll returns the finished result if there is one. It never blocks.
func (c *Coordinator) Poll() (Result, bool) {
	select {
	case res := <-c.results:
		c.mu.Lock()
		c.setStatusLocked(StatusIdle)
		c.current = Request{}
		c.mu.Unlock()
		return res, true
	default:
		return Result{}, false
	}
}

// IsBusy reports whether a request is in flight.
func (c *Coordinator) IsBusy() bool {
	return c.Status().Busy()
}

// Status returns the current lifecycle state.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Current returns the in-flight request, if any.
func (c *Coordinator) Current() (Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.status.Busy()
}

// Close cancels the in-flight step, if any, and waits for the worker to
// exit. Further submissions fail with ErrClosed.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// =============================================================================
// WORKER
// =============================================================================

func (c *Coordinator) run(req Request) {
	defer c.wg.Done()

	c.mu.Lock()
	c.setStatusLocked(StatusRunning)
	c.mu.Unlock()

	start := time.Now()
	text, err := c.execute(req)
	res := Result{Request: req, Text: text, Err: err, Elapsed: time.Since(start)}

	if err != nil {
		c.log.Warn("request failed", zap.String("id", req.ID), zap.Duration("elapsed", res.Elapsed), zap.Error(err))
	} else {
		c.log.Debug("request done", zap.String("id", req.ID), zap.Duration("elapsed", res.Elapsed))
	}

	c.mu.Lock()
	c.setStatusLocked(StatusCompleted)
	c.mu.Unlock()

	c.results <- res
}

// execute calls the stepper and turns a panic into an error so nothing
// escapes the worker.
func (c *Coordinator) execute(req Request) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("step panicked", zap.String("id", req.ID), zap.Any("panic", r))
			text, err = "", fmt.Errorf("generation panicked: %v", r)
		}
	}()

	ctx := c.ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var opts []model.Option
	if req.Model != "" {
		opts = append(opts, model.WithModel(req.Model))
	}

	text, err = c.stepper.Step(ctx, req.ThreadID, req.Prompt, opts...)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("generation timed out after %v: %w", c.timeout, err)
	}
	return text, err
}

// setStatusLocked must be called with mu held.
func (c *Coordinator) setStatusLocked(to Status) {
	if !isValidTransition(c.status, to) {
		c.log.Error("invalid status transition",
			zap.Stringer("from", c.status),
			zap.Stringer("to", to))
	}
	c.status = to
}
