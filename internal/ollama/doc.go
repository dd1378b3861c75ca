// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// This package talks to a local Ollama server for model discovery and chat
// completions, and adapts the client to the eino chat model interface so the
// conversation engine can place it in a compose graph.
//
// # Key Types
//
//   - Client: HTTP client for /api/tags and /api/chat
//   - ChatModel: eino model.BaseChatModel backed by a Client
//   - ModelLister: cached model discovery; empty on failure
//   - ClientError: typed error with an ErrorType category
//   - StreamReader: NDJSON reader for streamed chat responses
//
// # Usage
//
// Check that models exist before starting the UI:
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: url})
//	lister := ollama.NewModelLister(client, 30*time.Second, log)
//	models, err := ollama.RequireModels(ctx, lister)
//	if errors.Is(err, ollama.ErrBackendUnavailable) {
//	    // refuse to start
//	}
//
// Generate a reply through eino:
//
//	cm := ollama.NewChatModel(client)
//	msg, err := cm.Generate(ctx, history, model.WithModel("llama3.2"))
package ollama
