// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package generation runs one model step at a time off the interactive loop.
//
// The renderer submits a Request and then polls on its own tick; Poll never
// blocks. A Request carries the session and thread it came from so the
// result can be routed back to the right place.
//
// # Usage
//
//	coord := generation.New(eng, generation.WithTimeout(cfg.Generation.Timeout.Duration))
//	defer coord.Close()
//
//	if _, err := coord.Submit(generation.Request{SessionID: s.ID, ThreadID: s.ThreadID, Prompt: text}); err != nil {
//	    // generation.ErrBusy
//	}
//
//	// every 100ms
//	if res, ok := coord.Poll(); ok {
//	    ...
//	}
package generation
