// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jeranaias/ollama-chat/internal/engine"
	"github.com/jeranaias/ollama-chat/internal/export"
	"github.com/jeranaias/ollama-chat/internal/generation"
	"github.com/jeranaias/ollama-chat/internal/model"
	"github.com/jeranaias/ollama-chat/internal/ollama"
	"github.com/jeranaias/ollama-chat/internal/session"
)

// =============================================================================
// FAKES
// =============================================================================

// fakeGen holds at most one request; the test finishes it with complete.
type fakeGen struct {
	pending *generation.Request
	result  *generation.Result
	submits []generation.Request
}

func (f *fakeGen) Submit(req generation.Request) (generation.Request, error) {
	if f.IsBusy() {
		return req, generation.ErrBusy
	}
	req.ID = "req"
	f.pending = &req
	f.submits = append(f.submits, req)
	return req, nil
}

func (f *fakeGen) Poll() (generation.Result, bool) {
	if f.result == nil {
		return generation.Result{}, false
	}
	res := *f.result
	f.result = nil
	f.pending = nil
	return res, true
}

func (f *fakeGen) IsBusy() bool {
	return f.pending != nil
}

func (f *fakeGen) Current() (generation.Request, bool) {
	if f.pending == nil {
		return generation.Request{}, false
	}
	return *f.pending, true
}

func (f *fakeGen) complete(text string, err error) {
	f.result = &generation.Result{Request: *f.pending, Text: text, Err: err}
}

type fakeForgetter struct {
	forgotten []string
}

func (f *fakeForgetter) Forget(threadID string) {
	f.forgotten = append(f.forgotten, threadID)
}

type memorySink struct {
	files map[string][]byte
}

func (m *memorySink) Write(path string, content []byte) error {
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[path] = content
	return nil
}

type fixture struct {
	ctl    *Controller
	store  *session.Store
	gen    *fakeGen
	forget *fakeForgetter
	sink   *memorySink
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		store:  session.NewStore(),
		gen:    &fakeGen{},
		forget: &fakeForgetter{},
		sink:   &memorySink{},
	}
	opts = append([]Option{WithForgetter(f.forget), WithLogger(zaptest.NewLogger(t))}, opts...)
	f.ctl = New(f.store, f.gen, f.sink, []string{"llama3.2", "qwen2.5"}, opts...)
	return f
}

func requireRefused(t *testing.T, err error, reason string) *InvalidOperationError {
	t.Helper()
	var invalid *InvalidOperationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, reason, invalid.Reason)
	return invalid
}

// =============================================================================
// SEND / POLL
// =============================================================================

func TestSend_AppendsUserMessageAndSubmits(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctl.Dispatch(SendPrompt{Text: "  hello  "}))

	sess := f.store.Active()
	require.Len(t, sess.History, 1)
	assert.Equal(t, model.RoleUser, sess.History[0].Role)
	assert.Equal(t, "hello", sess.History[0].Text)
	assert.Equal(t, "hello", sess.Title)

	require.Len(t, f.gen.submits, 1)
	req := f.gen.submits[0]
	assert.Equal(t, sess.ID, req.SessionID)
	assert.Equal(t, sess.ThreadID, req.ThreadID)
	assert.Equal(t, "llama3.2", req.Model)
	assert.True(t, f.ctl.Busy())
}

func TestSend_EmptyPrompt(t *testing.T) {
	f := newFixture(t)
	requireRefused(t, f.ctl.Dispatch(SendPrompt{Text: " \n "}), "Prompt is empty")
	assert.Empty(t, f.gen.submits)
	assert.True(t, f.store.Active().IsEmpty())
}

func TestSend_WhileBusy(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Dispatch(SendPrompt{Text: "one"}))

	err := f.ctl.Dispatch(SendPrompt{Text: "two"})
	invalid := requireRefused(t, err, "Wait for the current response to finish")
	assert.ErrorIs(t, invalid, generation.ErrBusy)
	assert.Len(t, f.store.Active().History, 1, "refused prompt must not be appended")
}

func TestPoll_DeliversReply(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Dispatch(SendPrompt{Text: "hi"}))

	_, ok := f.ctl.Poll()
	assert.False(t, ok, "nothing to deliver yet")

	f.gen.complete("hello!", nil)
	d, ok := f.ctl.Poll()
	require.True(t, ok)
	assert.False(t, d.Discarded)
	assert.Equal(t, "hello!", d.Message.Text)

	hist := f.store.Active().History
	require.Len(t, hist, 2)
	assert.Equal(t, model.RoleAssistant, hist[1].Role)
	assert.False(t, f.ctl.Busy())
}

func TestPoll_ErrorBecomesFlaggedMessage(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Dispatch(SendPrompt{Text: "hi"}))

	cause := &ollama.ClientError{Type: ollama.ErrTypeModelNotFound, Message: "model 'nope' not found"}
	f.gen.complete("", &engine.ModelError{ThreadID: "t", Cause: cause})

	d, ok := f.ctl.Poll()
	require.True(t, ok)
	assert.True(t, d.Message.IsError)
	assert.Equal(t, "⚠️  **Error:**\nModel \"llama3.2\" not found. Pull it with: ollama pull llama3.2", d.Message.Text)

	hist := f.store.Active().History
	require.Len(t, hist, 2)
	assert.Equal(t, "hi", hist[0].Text, "user message stays after a failure")
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		model string
		want  string
	}{
		{
			name: "not running",
			err:  &engine.ModelError{ThreadID: "t", Cause: &ollama.ClientError{Type: ollama.ErrTypeNotRunning, Message: "connection refused"}},
			want: "Cannot reach Ollama. Make sure it is running: ollama serve",
		},
		{
			name:  "model not found",
			err:   &ollama.ClientError{Type: ollama.ErrTypeModelNotFound, Message: "model 'nope' not found"},
			model: "nope",
			want:  `Model "nope" not found. Pull it with: ollama pull nope`,
		},
		{
			name: "model not found without a name",
			err:  &ollama.ClientError{Type: ollama.ErrTypeModelNotFound, Message: "no model selected"},
			want: "no model selected",
		},
		{
			name: "timeout",
			err:  &ollama.ClientError{Type: ollama.ErrTypeTimeout, Message: "request timed out"},
			want: "Ollama did not answer in time. The model may still be loading; try again.",
		},
		{
			name: "server message",
			err:  &engine.ModelError{ThreadID: "t", Cause: &ollama.ClientError{Type: ollama.ErrTypeInvalidResponse, Message: "invalid options"}},
			want: "invalid options",
		},
		{
			name: "empty reply",
			err:  &engine.ModelError{ThreadID: "t", Cause: engine.ErrEmptyReply},
			want: engine.ErrEmptyReply.Error(),
		},
		{
			name: "plain",
			err:  errors.New("boom"),
			want: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorText(tt.err, tt.model); got != tt.want {
				t.Errorf("errorText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPending(t *testing.T) {
	f := newFixture(t)
	_, ok := f.ctl.Pending()
	assert.False(t, ok)

	require.NoError(t, f.ctl.Dispatch(SendPrompt{Text: "hi"}))
	req, ok := f.ctl.Pending()
	require.True(t, ok)
	assert.Equal(t, "hi", req.Prompt)
	assert.Equal(t, "llama3.2", req.Model)
}

func TestPoll_RoutesToIssuingSession(t *testing.T) {
	f := newFixture(t)
	first := f.store.Active().ID
	require.NoError(t, f.ctl.Dispatch(SendPrompt{Text: "question"}))

	require.NoError(t, f.ctl.Dispatch(NewSession{}))
	second := f.store.Active().ID

	f.gen.complete("answer", nil)
	d, ok := f.ctl.Poll()
	require.True(t, ok)
	assert.Equal(t, first, d.SessionID)

	s1, _, _ := f.store.ByID(first)
	s2, _, _ := f.store.ByID(second)
	assert.Len(t, s1.History, 2)
	assert.Empty(t, s2.History)
	assert.Equal(t, second, f.store.Active().ID, "delivery must not change the active session")
}

func TestPoll_DiscardsForDeletedSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Dispatch(SendPrompt{Text: "question"}))
	require.NoError(t, f.ctl.Dispatch(NewSession{}))
	require.NoError(t, f.ctl.Dispatch(DeleteSession{Index: 0}))

	f.gen.complete("answer", nil)
	d, ok := f.ctl.Poll()
	require.True(t, ok)
	assert.True(t, d.Discarded)
	assert.Empty(t, f.store.Active().History)
	assert.False(t, f.ctl.Busy())
}

func TestPoll_DiscardsForClearedSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Dispatch(SendPrompt{Text: "question"}))
	require.NoError(t, f.ctl.Dispatch(ClearHistory{Index: 0}))

	f.gen.complete("answer", nil)
	d, ok := f.ctl.Poll()
	require.True(t, ok)
	assert.True(t, d.Discarded)
	assert.True(t, f.store.Active().IsEmpty())
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestDelete_LastSession(t *testing.T) {
	f := newFixture(t)
	invalid := requireRefused(t, f.ctl.Dispatch(DeleteSession{Index: 0}), "There must be at least one session")
	assert.ErrorIs(t, invalid, session.ErrLastSession)
	assert.Empty(t, f.forget.forgotten)
}

func TestDelete_ForgetsThread(t *testing.T) {
	f := newFixture(t)
	thread := f.store.Active().ThreadID
	require.NoError(t, f.ctl.Dispatch(NewSession{}))
	require.NoError(t, f.ctl.Dispatch(DeleteSession{Index: 0}))
	assert.Equal(t, []string{thread}, f.forget.forgotten)
}

func TestClear_ForgetsOldThread(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Dispatch(SendPrompt{Text: "x"}))
	f.gen.complete("y", nil)
	f.ctl.Poll()

	old := f.store.Active().ThreadID
	require.NoError(t, f.ctl.Dispatch(ClearHistory{Index: 0}))
	assert.Equal(t, []string{old}, f.forget.forgotten)
	assert.Equal(t, "Chat 1", f.store.Active().Title)
}

func TestClear_EmptyIsNoop(t *testing.T) {
	f := newFixture(t)
	thread := f.store.Active().ThreadID
	require.NoError(t, f.ctl.Dispatch(ClearHistory{Index: 0}))
	assert.Equal(t, thread, f.store.Active().ThreadID)
	assert.Empty(t, f.forget.forgotten)
}

func TestSwitch_BadIndex(t *testing.T) {
	f := newFixture(t)
	invalid := requireRefused(t, f.ctl.Dispatch(SwitchSession{Index: 3}), "No such session")
	assert.ErrorIs(t, invalid, session.ErrIndexOutOfRange)
	assert.Equal(t, "switch-session", invalid.Op)
}

// =============================================================================
// MODELS
// =============================================================================

func TestNew_DefaultModel(t *testing.T) {
	assert.Equal(t, "qwen2.5", newFixture(t, WithDefaultModel("qwen2.5")).ctl.Model())
	assert.Equal(t, "llama3.2", newFixture(t, WithDefaultModel("missing")).ctl.Model())
}

func TestSelectModel(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Dispatch(SelectModel{Name: "qwen2.5"}))
	require.NoError(t, f.ctl.Dispatch(SendPrompt{Text: "hi"}))
	assert.Equal(t, "qwen2.5", f.gen.submits[0].Model)

	requireRefused(t, f.ctl.Dispatch(SelectModel{Name: "gpt-9"}), `Unknown model "gpt-9"`)
	assert.Equal(t, "qwen2.5", f.ctl.Model())
}

func TestNextModel(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "qwen2.5", f.ctl.NextModel())
	require.NoError(t, f.ctl.Dispatch(SelectModel{Name: f.ctl.NextModel()}))
	assert.Equal(t, "llama3.2", f.ctl.NextModel())
}

func TestSetModels(t *testing.T) {
	f := newFixture(t, WithDefaultModel("qwen2.5"))
	f.ctl.SetModels([]string{"mistral", "qwen2.5"})
	assert.Equal(t, "qwen2.5", f.ctl.Model())
	f.ctl.SetModels([]string{"mistral"})
	assert.Equal(t, "mistral", f.ctl.Model())

	f.ctl.SetModels(nil)
	assert.Equal(t, []string{"mistral"}, f.ctl.Models(), "an empty refresh keeps the old list")
	assert.Equal(t, "mistral", f.ctl.Model())
}

type fakeCatalog struct {
	names       []string
	invalidated int
}

func (c *fakeCatalog) Invalidate() { c.invalidated++ }

func (c *fakeCatalog) Names(ctx context.Context) []string {
	if c.invalidated == 0 {
		return []string{"stale"}
	}
	return c.names
}

func TestFetchModels_InvalidatesFirst(t *testing.T) {
	cat := &fakeCatalog{names: []string{"llama3.2", "mistral"}}
	assert.Equal(t, []string{"llama3.2", "mistral"}, FetchModels(context.Background(), cat))
	assert.Equal(t, 1, cat.invalidated)
}

// =============================================================================
// EXPORT
// =============================================================================

func TestExport_Empty(t *testing.T) {
	f := newFixture(t)
	invalid := requireRefused(t, f.ctl.Dispatch(ExportSession{}), "No messages to export")
	assert.ErrorIs(t, invalid, export.ErrEmptyHistory)
	assert.Empty(t, f.sink.files)
}

func TestCanExport(t *testing.T) {
	f := newFixture(t)
	requireRefused(t, f.ctl.CanExport(), "No messages to export")

	require.NoError(t, f.ctl.Dispatch(SendPrompt{Text: "hi"}))
	assert.NoError(t, f.ctl.CanExport())
}

func TestExport_DefaultPath(t *testing.T) {
	f := newFixture(t, WithExportDir("/exports"))
	require.NoError(t, f.ctl.Dispatch(SendPrompt{Text: "hello there"}))
	assert.Equal(t, filepath.Join("/exports", "hello_there.md"), f.ctl.DefaultExportPath())

	path, err := f.ctl.Export("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/exports", "hello_there.md"), path)
	assert.Contains(t, string(f.sink.files[path]), "# hello there\n\n### **You** · ")
	assert.Equal(t, path, f.ctl.LastExport())
}

func TestExport_FormatByExtension(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Dispatch(SendPrompt{Text: "hello"}))
	require.NoError(t, f.ctl.Dispatch(ExportSession{Path: "chat.json"}))
	assert.Contains(t, string(f.sink.files["chat.json"]), `"title": "hello"`)
}

// =============================================================================
// NOTICES
// =============================================================================

func TestNotice(t *testing.T) {
	assert.Equal(t, "Prompt is empty", Notice(&InvalidOperationError{Op: "send", Reason: "Prompt is empty"}))
	assert.Equal(t, "boom", Notice(errors.New("boom")))
}
