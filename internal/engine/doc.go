// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine keeps per-thread conversation history and runs prompts
// through an eino graph.
//
// The graph is START -> chatbot -> END with a single chat-model node. A
// step either commits both the user message and the reply to the thread or
// commits nothing.
//
// # Key Types
//
//   - Engine: compiled graph plus thread store
//   - ThreadStore: go-cache backed map of thread id to messages
//   - ModelError: a failed backend call
//
// # Usage
//
//	eng, err := engine.New(ctx, ollama.NewChatModel(client))
//	reply, err := eng.Step(ctx, session.ThreadID, "hello", model.WithModel("llama3.2"))
package engine
