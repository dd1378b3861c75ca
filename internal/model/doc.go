// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat messages.
//
// # Key Types
//
//   - Message: immutable value with role, text, timestamp and an error flag
//   - Role: message role enumeration (user, assistant)
//
// # Usage
//
//	msg := model.NewUserMessage("Hello!")
//	fmt.Printf("[%s] %s: %s\n", msg.Clock(), msg.Role.DisplayName(), msg.Text)
package model
