// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the line-mode chat.
//
// # Key Types
//
//   - Command: tui (default), chat, models, version, help
//   - Args: global flags (--model, --config) and leftover arguments
//   - REPL: line-mode chat driving the same controller as the TUI
//   - LineEditor: peterh/liner input with persistent history
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	if err != nil {
//	    cli.PrintUsage(os.Stderr)
//	    os.Exit(2)
//	}
//	if cmd == cli.CmdChat {
//	    editor := cli.NewLineEditor()
//	    defer editor.Close()
//	    err = cli.NewREPL(ctl, editor, os.Stdout, cli.REPLConfig{
//	        Profile: cli.GetColorProfile(),
//	    }).Run(ctx)
//	}
package cli
