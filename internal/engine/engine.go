// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/jeranaias/ollama-chat/internal/logging"
)

// ChatNode is the graph key of the chat-model node.
const ChatNode = "chatbot"

// Engine runs prompts through a compiled single-step graph and keeps each
// thread's history. It is safe for concurrent use.
type Engine struct {
	graph     compose.Runnable[[]*schema.Message, *schema.Message]
	threads   *ThreadStore
	streaming bool
	log       *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithThreadStore replaces the default never-expiring store.
func WithThreadStore(store *ThreadStore) Option {
	return func(e *Engine) { e.threads = store }
}

// WithStreaming makes Step read the reply as a stream of chunks and join
// them, instead of asking the backend for one complete message.
func WithStreaming(enabled bool) Option {
	return func(e *Engine) { e.streaming = enabled }
}

// New compiles the conversation graph START -> chatbot -> END around backend.
func New(ctx context.Context, backend model.BaseChatModel, opts ...Option) (*Engine, error) {
	if backend == nil {
		return nil, fmt.Errorf("engine: nil chat model")
	}

	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logging.OrNop(e.log)
	if e.threads == nil {
		e.threads = NewThreadStore(0)
	}

	g := compose.NewGraph[[]*schema.Message, *schema.Message]()
	if err := g.AddChatModelNode(ChatNode, backend); err != nil {
		return nil, fmt.Errorf("add chat model node: %w", err)
	}
	if err := g.AddEdge(compose.START, ChatNode); err != nil {
		return nil, fmt.Errorf("add start edge: %w", err)
	}
	if err := g.AddEdge(ChatNode, compose.END); err != nil {
		return nil, fmt.Errorf("add end edge: %w", err)
	}

	runnable, err := g.Compile(ctx, compose.WithGraphName("conversation"))
	if err != nil {
		return nil, fmt.Errorf("compile conversation graph: %w", err)
	}
	e.graph = runnable

	return e, nil
}

// Step sends prompt on the thread and returns the reply text.
//
// The thread's prior messages plus the new user message go to the model in
// one call. On success the user and assistant messages are appended
// together; on failure the thread is left exactly as it was and the error
// is a *ModelError, ErrThreadChanged when a concurrent step on the same
// thread committed first, or ErrThreadForgotten when the thread was
// forgotten mid-step. opts are forwarded to the chat-model node, which
// is how the caller picks the model per request.
func (e *Engine) Step(ctx context.Context, threadID, prompt string, opts ...model.Option) (string, error) {
	history := e.threads.Load(threadID)
	base := len(history)

	user := schema.UserMessage(prompt)
	input := append(history, user)

	start := time.Now()
	out, err := e.generate(ctx, input, opts)
	if err != nil {
		e.log.Warn("step failed",
			zap.String("thread", threadID),
			zap.Int("history", base),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", &ModelError{ThreadID: threadID, Cause: err}
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		e.log.Warn("empty reply", zap.String("thread", threadID))
		return "", &ModelError{ThreadID: threadID, Cause: ErrEmptyReply}
	}

	reply := schema.AssistantMessage(out.Content, nil)
	reply.ResponseMeta = out.ResponseMeta
	if err := e.threads.Append(threadID, base, user, reply); err != nil {
		e.log.Warn("step discarded", zap.String("thread", threadID), zap.Error(err))
		return "", err
	}

	fields := []zap.Field{
		zap.String("thread", threadID),
		zap.Int("history", base+2),
		zap.Duration("elapsed", time.Since(start)),
	}
	if meta := out.ResponseMeta; meta != nil && meta.Usage != nil {
		fields = append(fields, zap.Int("completion_tokens", meta.Usage.CompletionTokens))
	}
	e.log.Debug("step done", fields...)

	return out.Content, nil
}

// generate runs the graph once, streaming when enabled.
func (e *Engine) generate(ctx context.Context, input []*schema.Message, opts []model.Option) (*schema.Message, error) {
	if !e.streaming {
		return e.graph.Invoke(ctx, input, compose.WithChatModelOption(opts...))
	}

	sr, err := e.graph.Stream(ctx, input, compose.WithChatModelOption(opts...))
	if err != nil {
		return nil, err
	}
	// ConcatMessageStream closes sr.
	return schema.ConcatMessageStream(sr)
}

// History returns a copy of the thread's messages.
func (e *Engine) History(threadID string) []*schema.Message {
	return e.threads.Load(threadID)
}

// Forget drops all state for threadID.
func (e *Engine) Forget(threadID string) {
	e.threads.Delete(threadID)
	e.log.Debug("thread forgotten", zap.String("thread", threadID))
}

// Threads returns the number of threads with history.
func (e *Engine) Threads() int {
	return e.threads.Len()
}
