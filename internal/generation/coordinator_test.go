// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"go.uber.org/zap/zaptest"
)

// =============================================================================
// FAKE STEPPER
// =============================================================================

type stepCall struct {
	threadID string
	prompt   string
	model    string
}

// fakeStepper blocks until released when gate is non-nil.
type fakeStepper struct {
	gate  chan struct{}
	calls chan stepCall
	err   error
	panic any
}

func newFakeStepper() *fakeStepper {
	return &fakeStepper{calls: make(chan stepCall, 8)}
}

func (f *fakeStepper) Step(ctx context.Context, threadID, prompt string, opts ...model.Option) (string, error) {
	name := ""
	o := model.GetCommonOptions(&model.Options{Model: &name}, opts...)
	f.calls <- stepCall{threadID: threadID, prompt: prompt, model: *o.Model}

	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.panic != nil {
		panic(f.panic)
	}
	if f.err != nil {
		return "", f.err
	}
	return "reply to " + prompt, nil
}

// waitResult polls like the UI tick until a result arrives.
func waitResult(t *testing.T, c *Coordinator) Result {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if res, ok := c.Poll(); ok {
			return res
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no result within 5s")
	return Result{}
}

func newCoordinator(t *testing.T, s Stepper, opts ...Option) *Coordinator {
	t.Helper()
	c := New(s, append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)...)
	t.Cleanup(c.Close)
	return c
}

// =============================================================================
// TESTS
// =============================================================================

func TestCoordinator_SubmitAndPoll(t *testing.T) {
	fs := newFakeStepper()
	c := newCoordinator(t, fs)

	if c.IsBusy() {
		t.Fatal("new coordinator should be idle")
	}

	req, err := c.Submit(Request{SessionID: 3, ThreadID: "thread_3_x", Prompt: "hi", Model: "llama3.2"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if req.ID == "" {
		t.Error("Submit() should assign an ID")
	}
	if !c.IsBusy() {
		t.Error("IsBusy() = false right after Submit")
	}

	res := waitResult(t, c)
	if !res.OK() || res.Text != "reply to hi" {
		t.Errorf("result = %+v, want reply to hi", res)
	}
	if res.Request.SessionID != 3 || res.Request.ID != req.ID {
		t.Errorf("result request = %+v, want the submitted one", res.Request)
	}
	if c.IsBusy() {
		t.Error("IsBusy() = true after delivery")
	}

	call := <-fs.calls
	if call.model != "llama3.2" || call.threadID != "thread_3_x" {
		t.Errorf("step call = %+v", call)
	}
}

func TestCoordinator_RejectsWhileBusy(t *testing.T) {
	fs := newFakeStepper()
	fs.gate = make(chan struct{})
	c := newCoordinator(t, fs)

	if _, err := c.Submit(Request{Prompt: "first"}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	<-fs.calls

	if _, err := c.Submit(Request{Prompt: "second"}); !errors.Is(err, ErrBusy) {
		t.Errorf("Submit() while running = %v, want ErrBusy", err)
	}
	if c.Status() != StatusRunning {
		t.Errorf("Status() = %s, want Running", c.Status())
	}

	close(fs.gate)
	waitResultStatus(t, c)

	// Finished but undelivered still counts as busy.
	if _, err := c.Submit(Request{Prompt: "third"}); !errors.Is(err, ErrBusy) {
		t.Errorf("Submit() before poll = %v, want ErrBusy", err)
	}

	res := waitResult(t, c)
	if res.Text != "reply to first" {
		t.Errorf("Text = %q", res.Text)
	}
	if _, err := c.Submit(Request{Prompt: "fourth"}); err != nil {
		t.Errorf("Submit() after poll = %v, want nil", err)
	}
	waitResult(t, c)
}

// waitResultStatus waits until the worker has finished without polling.
func waitResultStatus(t *testing.T, c *Coordinator) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for c.Status() != StatusCompleted {
		if time.Now().After(deadline) {
			t.Fatalf("Status() = %s, never reached Completed", c.Status())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCoordinator_PollIsNonBlocking(t *testing.T) {
	fs := newFakeStepper()
	fs.gate = make(chan struct{})
	c := newCoordinator(t, fs)

	if _, ok := c.Poll(); ok {
		t.Error("Poll() on idle coordinator returned a result")
	}

	if _, err := c.Submit(Request{Prompt: "x"}); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		c.Poll()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Poll() blocked while a step was running")
	}
	close(fs.gate)
	waitResult(t, c)
}

func TestCoordinator_ErrorResult(t *testing.T) {
	fs := newFakeStepper()
	fs.err = errors.New("connection refused")
	c := newCoordinator(t, fs)

	if _, err := c.Submit(Request{Prompt: "x"}); err != nil {
		t.Fatal(err)
	}
	res := waitResult(t, c)
	if res.OK() || res.Text != "" {
		t.Errorf("result = %+v, want failure", res)
	}
	if !errors.Is(res.Err, fs.err) {
		t.Errorf("Err = %v, want %v", res.Err, fs.err)
	}
}

func TestCoordinator_PanicBecomesError(t *testing.T) {
	fs := newFakeStepper()
	fs.panic = "kaboom"
	c := newCoordinator(t, fs)

	if _, err := c.Submit(Request{Prompt: "x"}); err != nil {
		t.Fatal(err)
	}
	res := waitResult(t, c)
	if res.Err == nil || !strings.Contains(res.Err.Error(), "kaboom") {
		t.Errorf("Err = %v, want panic message", res.Err)
	}
	if c.IsBusy() {
		t.Error("coordinator should be idle after a panicking step is delivered")
	}
}

func TestCoordinator_Timeout(t *testing.T) {
	fs := newFakeStepper()
	fs.gate = make(chan struct{})
	c := newCoordinator(t, fs, WithTimeout(20*time.Millisecond))

	if _, err := c.Submit(Request{Prompt: "x"}); err != nil {
		t.Fatal(err)
	}
	res := waitResult(t, c)
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Errorf("Err = %v, want deadline exceeded", res.Err)
	}
	if !strings.Contains(res.Err.Error(), "timed out") {
		t.Errorf("Err = %q, want timeout wording", res.Err)
	}
}

func TestCoordinator_Close(t *testing.T) {
	fs := newFakeStepper()
	fs.gate = make(chan struct{})
	c := New(fs)

	if _, err := c.Submit(Request{Prompt: "x"}); err != nil {
		t.Fatal(err)
	}
	<-fs.calls

	c.Close()
	if _, err := c.Submit(Request{Prompt: "y"}); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit() after Close = %v, want ErrClosed", err)
	}
}

func TestCoordinator_Current(t *testing.T) {
	fs := newFakeStepper()
	fs.gate = make(chan struct{})
	c := newCoordinator(t, fs)

	if _, ok := c.Current(); ok {
		t.Error("Current() on idle coordinator should report nothing")
	}
	if _, err := c.Submit(Request{SessionID: 7, Prompt: "x"}); err != nil {
		t.Fatal(err)
	}
	if req, ok := c.Current(); !ok || req.SessionID != 7 {
		t.Errorf("Current() = %+v, %v", req, ok)
	}
	close(fs.gate)
	waitResult(t, c)
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusIdle, StatusPending, true},
		{StatusPending, StatusRunning, true},
		{StatusRunning, StatusCompleted, true},
		{StatusCompleted, StatusIdle, true},
		{StatusIdle, StatusRunning, false},
		{StatusRunning, StatusIdle, false},
		{StatusCompleted, StatusPending, false},
	}
	for _, tc := range tests {
		if got := isValidTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("isValidTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
