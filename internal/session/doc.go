// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session keeps the ordered list of chat sessions.
//
// Every session has a sequence id, a title, its message history and the id
// of the model thread that carries its context. The store always holds at
// least one session and tracks which one is active.
//
// # Key Types
//
//   - Store: ordered sessions plus the active index
//   - Session: one conversation
//
// # Usage
//
//	store := session.NewStore()
//	id := store.Create()
//	_ = store.Append(id, model.NewUserMessage("What is a goroutine?"))
//	fmt.Println(store.Active().Title) // "What is a goroutine?"
package session
