// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for ollama-chat.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - OllamaConfig: server address, timeouts, model cache
//   - GenerationConfig: worker timeout, poll interval, thread TTL
//   - LogConfig: rotating log file settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (OLLAMA_CHAT_*, OLLAMA_HOST)
//   - .env in the working directory
//   - ~/.ollama-chat/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
//	    BaseURL: cfg.Ollama.BaseURL,
//	})
package config
