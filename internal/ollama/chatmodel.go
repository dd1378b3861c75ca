// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// =============================================================================
// CHAT MODEL ADAPTER
// =============================================================================

// ChatModel exposes a Client as an eino chat model, so it can sit in a
// compose graph. The model name is chosen per call with model.WithModel and
// falls back to the client's default model.
type ChatModel struct {
	client *Client
}

var _ model.BaseChatModel = (*ChatModel)(nil)

// NewChatModel wraps client as an eino chat model.
func NewChatModel(client *Client) *ChatModel {
	return &ChatModel{client: client}
}

// Generate sends the full message list and returns the single assistant reply.
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	name, options := m.resolve(opts)
	if name == "" {
		return nil, &ClientError{Type: ErrTypeModelNotFound, Message: "no model selected"}
	}

	resp, err := m.client.Chat(ctx, name, toWire(input), options)
	if err != nil {
		return nil, err
	}

	out := schema.AssistantMessage(resp.Message.Content, nil)
	out.ResponseMeta = &schema.ResponseMeta{
		FinishReason: resp.DoneReason,
		Usage: &schema.TokenUsage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}
	return out, nil
}

// Stream sends the message list with streaming enabled and yields one
// assistant message chunk per NDJSON line.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	name, options := m.resolve(opts)
	if name == "" {
		return nil, &ClientError{Type: ErrTypeModelNotFound, Message: "no model selected"}
	}

	sr, sw := schema.Pipe[*schema.Message](16)
	go func() {
		defer sw.Close()
		defer func() {
			if r := recover(); r != nil {
				sw.Send(nil, fmt.Errorf("stream panicked: %v", r))
			}
		}()

		err := m.client.ChatStream(ctx, name, toWire(input), options, func(chunk StreamChunk) {
			msg := schema.AssistantMessage(chunk.Content, nil)
			if chunk.Done {
				msg.ResponseMeta = &schema.ResponseMeta{
					FinishReason: chunk.DoneReason,
					Usage: &schema.TokenUsage{
						PromptTokens:     chunk.PromptTokens,
						CompletionTokens: chunk.CompletionTokens,
						TotalTokens:      chunk.PromptTokens + chunk.CompletionTokens,
					},
				}
			}
			sw.Send(msg, nil)
		})
		if err != nil {
			sw.Send(nil, err)
		}
	}()

	return sr, nil
}

// resolve folds eino common options into a model name and Ollama options.
func (m *ChatModel) resolve(opts []model.Option) (string, *Options) {
	fallback := m.client.DefaultModel()
	common := model.GetCommonOptions(&model.Options{Model: &fallback}, opts...)

	name := ""
	if common.Model != nil {
		name = *common.Model
	}

	var options *Options
	if common.Temperature != nil || common.TopP != nil || common.MaxTokens != nil || len(common.Stop) > 0 {
		options = &Options{Stop: common.Stop}
		if common.Temperature != nil {
			options.Temperature = float64(*common.Temperature)
		}
		if common.TopP != nil {
			options.TopP = float64(*common.TopP)
		}
		if common.MaxTokens != nil {
			options.NumPredict = *common.MaxTokens
		}
	}
	return name, options
}

// toWire converts eino messages to the Ollama wire format.
func toWire(in []*schema.Message) []Message {
	out := make([]Message, 0, len(in))
	for _, msg := range in {
		if msg == nil {
			continue
		}
		out = append(out, Message{Role: string(msg.Role), Content: msg.Content})
	}
	return out
}
