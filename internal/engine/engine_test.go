// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// =============================================================================
// FAKE CHAT MODEL
// =============================================================================

// fakeModel echoes the last user message and records every call.
type fakeModel struct {
	mu     sync.Mutex
	inputs [][]*schema.Message
	models []string
	reply  func(n int, in []*schema.Message) (*schema.Message, error)
}

func (f *fakeModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	fallback := ""
	o := model.GetCommonOptions(&model.Options{Model: &fallback}, opts...)

	f.mu.Lock()
	n := len(f.inputs)
	f.inputs = append(f.inputs, append([]*schema.Message(nil), in...))
	f.models = append(f.models, *o.Model)
	f.mu.Unlock()

	if f.reply != nil {
		return f.reply(n, in)
	}
	return schema.AssistantMessage("echo: "+in[len(in)-1].Content, nil), nil
}

func (f *fakeModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeModel) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func newEngine(t *testing.T, m model.BaseChatModel) *Engine {
	t.Helper()
	e, err := New(context.Background(), m, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return e
}

// =============================================================================
// STEP TESTS
// =============================================================================

func TestStep_AppendsBothMessages(t *testing.T) {
	fm := &fakeModel{}
	e := newEngine(t, fm)

	reply, err := e.Step(context.Background(), "t1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", reply)

	hist := e.History("t1")
	require.Len(t, hist, 2)
	assert.Equal(t, schema.User, hist[0].Role)
	assert.Equal(t, "hello", hist[0].Content)
	assert.Equal(t, schema.Assistant, hist[1].Role)
	assert.Equal(t, "echo: hello", hist[1].Content)
}

// chunkModel only streams; Generate must not be reached.
type chunkModel struct {
	chunks []string
	err    error
}

func (c *chunkModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return nil, errors.New("Generate called on a streaming engine")
}

func (c *chunkModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if c.err != nil {
		return nil, c.err
	}
	msgs := make([]*schema.Message, 0, len(c.chunks))
	for _, chunk := range c.chunks {
		msgs = append(msgs, schema.AssistantMessage(chunk, nil))
	}
	return schema.StreamReaderFromArray(msgs), nil
}

func TestStep_StreamingJoinsChunks(t *testing.T) {
	e, err := New(context.Background(), &chunkModel{chunks: []string{"Hel", "lo", " there", ""}},
		WithStreaming(true), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	reply, err := e.Step(context.Background(), "t1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello there", reply)

	hist := e.History("t1")
	require.Len(t, hist, 2)
	assert.Equal(t, "Hello there", hist[1].Content)
}

func TestStep_StreamingFailurePersistsNothing(t *testing.T) {
	e, err := New(context.Background(), &chunkModel{err: errors.New("refused")},
		WithStreaming(true), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	_, err = e.Step(context.Background(), "t1", "hi")
	var modelErr *ModelError
	require.ErrorAs(t, err, &modelErr)
	assert.Empty(t, e.History("t1"))
}

func TestStep_SendsFullHistory(t *testing.T) {
	fm := &fakeModel{}
	e := newEngine(t, fm)
	ctx := context.Background()

	_, err := e.Step(ctx, "t1", "one")
	require.NoError(t, err)
	_, err = e.Step(ctx, "t1", "two")
	require.NoError(t, err)

	require.Equal(t, 2, fm.calls())
	second := fm.inputs[1]
	require.Len(t, second, 3)
	assert.Equal(t, "one", second[0].Content)
	assert.Equal(t, "echo: one", second[1].Content)
	assert.Equal(t, "two", second[2].Content)
	assert.Len(t, e.History("t1"), 4)
}

func TestStep_ThreadsAreIsolated(t *testing.T) {
	fm := &fakeModel{}
	e := newEngine(t, fm)
	ctx := context.Background()

	_, err := e.Step(ctx, "a", "for a")
	require.NoError(t, err)
	_, err = e.Step(ctx, "b", "for b")
	require.NoError(t, err)

	require.Len(t, fm.inputs[1], 1, "thread b must not see thread a")
	assert.Equal(t, "for b", fm.inputs[1][0].Content)
	assert.Equal(t, 2, e.Threads())
}

func TestStep_ModelOptionReachesBackend(t *testing.T) {
	fm := &fakeModel{}
	e := newEngine(t, fm)

	_, err := e.Step(context.Background(), "t1", "hi", model.WithModel("llama3.2"))
	require.NoError(t, err)
	_, err = e.Step(context.Background(), "t1", "hi again", model.WithModel("qwen2.5"))
	require.NoError(t, err)

	assert.Equal(t, []string{"llama3.2", "qwen2.5"}, fm.models)
}

func TestStep_FailureLeavesThreadUntouched(t *testing.T) {
	fm := &fakeModel{
		reply: func(n int, in []*schema.Message) (*schema.Message, error) {
			if n == 1 {
				return nil, errors.New("connection refused")
			}
			return schema.AssistantMessage("ok", nil), nil
		},
	}
	e := newEngine(t, fm)
	ctx := context.Background()

	_, err := e.Step(ctx, "t1", "first")
	require.NoError(t, err)

	_, err = e.Step(ctx, "t1", "second")
	var modelErr *ModelError
	require.ErrorAs(t, err, &modelErr)
	assert.Equal(t, "t1", modelErr.ThreadID)
	assert.Contains(t, err.Error(), "connection refused")

	assert.Len(t, e.History("t1"), 2, "failed step must persist nothing")
}

func TestStep_EmptyReplyIsModelError(t *testing.T) {
	for name, reply := range map[string]*schema.Message{
		"blank":      schema.AssistantMessage("  \n", nil),
		"whitespace": schema.AssistantMessage("\t", nil),
	} {
		t.Run(name, func(t *testing.T) {
			fm := &fakeModel{reply: func(int, []*schema.Message) (*schema.Message, error) {
				return reply, nil
			}}
			e := newEngine(t, fm)

			_, err := e.Step(context.Background(), "t1", "hi")
			var modelErr *ModelError
			require.ErrorAs(t, err, &modelErr)
			assert.ErrorIs(t, err, ErrEmptyReply)
			assert.Empty(t, e.History("t1"))
		})
	}
}

func TestStep_ConcurrentStepOnSameThread(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	fm := &fakeModel{
		reply: func(n int, in []*schema.Message) (*schema.Message, error) {
			if n == 0 {
				close(entered)
				<-release
			}
			return schema.AssistantMessage(fmt.Sprintf("reply %d", n), nil), nil
		},
	}
	e := newEngine(t, fm)
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() {
		_, err := e.Step(ctx, "t1", "slow")
		errc <- err
	}()

	<-entered
	_, err := e.Step(ctx, "t1", "fast")
	require.NoError(t, err)
	close(release)

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrThreadChanged)
	case <-time.After(5 * time.Second):
		t.Fatal("slow step never returned")
	}

	hist := e.History("t1")
	require.Len(t, hist, 2)
	assert.Equal(t, "fast", hist[0].Content)
}

func TestForget(t *testing.T) {
	e := newEngine(t, &fakeModel{})
	_, err := e.Step(context.Background(), "t1", "hi")
	require.NoError(t, err)

	e.Forget("t1")
	assert.Empty(t, e.History("t1"))
	assert.Equal(t, 0, e.Threads())

	e.Forget("never-seen")
}

func TestForget_DuringStep(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	fm := &fakeModel{
		reply: func(n int, in []*schema.Message) (*schema.Message, error) {
			close(entered)
			<-release
			return schema.AssistantMessage("late", nil), nil
		},
	}
	e := newEngine(t, fm)

	errc := make(chan error, 1)
	go func() {
		_, err := e.Step(context.Background(), "t1", "first")
		errc <- err
	}()

	<-entered
	e.Forget("t1")
	close(release)

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrThreadForgotten)
	case <-time.After(5 * time.Second):
		t.Fatal("step never returned")
	}
	assert.Equal(t, 0, e.Threads(), "a forgotten thread must not come back")
	assert.Empty(t, e.History("t1"))
}

func TestHistory_ReturnsCopy(t *testing.T) {
	e := newEngine(t, &fakeModel{})
	_, err := e.Step(context.Background(), "t1", "hi")
	require.NoError(t, err)

	h := e.History("t1")
	h[0] = schema.UserMessage("tampered")
	assert.Equal(t, "hi", e.History("t1")[0].Content)
}

func TestNew_NilBackend(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)
}

// =============================================================================
// THREAD STORE TESTS
// =============================================================================

func TestThreadStore_AppendChecksBase(t *testing.T) {
	s := NewThreadStore(0)

	require.NoError(t, s.Append("t", 0, schema.UserMessage("a"), schema.AssistantMessage("b", nil)))
	assert.ErrorIs(t, s.Append("t", 0, schema.UserMessage("c")), ErrThreadChanged)
	require.NoError(t, s.Append("t", 2, schema.UserMessage("c")))
	assert.Len(t, s.Load("t"), 3)
}

func TestThreadStore_DeleteRetiresID(t *testing.T) {
	s := NewThreadStore(0)
	require.NoError(t, s.Append("t", 0, schema.UserMessage("a")))

	s.Delete("t")
	assert.ErrorIs(t, s.Append("t", 0, schema.UserMessage("b")), ErrThreadForgotten)
	assert.Equal(t, 0, s.Len())

	s.Delete("unseen")
	assert.ErrorIs(t, s.Append("unseen", 0, schema.UserMessage("c")), ErrThreadForgotten)
	require.NoError(t, s.Append("other", 0, schema.UserMessage("d")))
}

func TestThreadStore_Expiry(t *testing.T) {
	s := NewThreadStore(20 * time.Millisecond)
	require.NoError(t, s.Append("t", 0, schema.UserMessage("a")))

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, s.Load("t"))
}
