// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller is the application core shared by the TUI and the REPL.
//
// Renderers translate key presses into Commands, call Dispatch, and call
// Poll on a 100ms tick. Refused commands return *InvalidOperationError,
// whose Reason is meant for the status line.
//
// # Usage
//
//	ctl := controller.New(store, coord, export.FileSink{}, models,
//	    controller.WithForgetter(eng),
//	    controller.WithDefaultModel(cfg.Ollama.DefaultModel))
//
//	if err := ctl.Dispatch(controller.SendPrompt{Text: input}); err != nil {
//	    status = controller.Notice(err)
//	}
//	if d, ok := ctl.Poll(); ok && !d.Discarded {
//	    redraw()
//	}
package controller
