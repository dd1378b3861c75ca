// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the application's zap logger.
//
// Output is JSON with ISO8601 timestamps and capitalized levels, written to
// a lumberjack-rotated file (~/.ollama-chat/logs/ollama-chat.log unless
// configured otherwise). Components receive the logger through options and
// name themselves:
//
//	log, err := logging.New(cfg.Log)
//	if err != nil {
//	    return err
//	}
//	defer log.Sync()
//	eng, err := engine.New(ctx, backend, engine.WithLogger(log.Named("engine")))
package logging
