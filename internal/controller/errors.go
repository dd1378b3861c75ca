// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"errors"
	"fmt"

	"github.com/jeranaias/ollama-chat/internal/engine"
	"github.com/jeranaias/ollama-chat/internal/ollama"
)

// InvalidOperationError is a refused command. Reason is meant to be shown
// to the user as a notice; Err is the underlying sentinel, if any.
type InvalidOperationError struct {
	Op     string
	Reason string
	Err    error
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *InvalidOperationError) Unwrap() error {
	return e.Err
}

func refuse(cmd Command, reason string, err error) error {
	return &InvalidOperationError{Op: cmd.Op(), Reason: reason, Err: err}
}

// Notice returns the user-facing text for err: the Reason of a refusal,
// otherwise the error message.
func Notice(err error) string {
	var invalid *InvalidOperationError
	if errors.As(err, &invalid) {
		return invalid.Reason
	}
	return err.Error()
}

// errorText turns a failed generation into the text of its error bubble.
// Known backend failures get a hint on how to fix them; anything else shows
// the innermost message rather than a chain of wrappers.
func errorText(err error, modelName string) string {
	switch {
	case ollama.IsNotRunning(err):
		return "Cannot reach Ollama. Make sure it is running: ollama serve"
	case ollama.IsModelNotFound(err) && modelName != "":
		return fmt.Sprintf("Model %q not found. Pull it with: ollama pull %s", modelName, modelName)
	case ollama.IsTimeout(err):
		return "Ollama did not answer in time. The model may still be loading; try again."
	}

	var clientErr *ollama.ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Error()
	}
	var modelErr *engine.ModelError
	if errors.As(err, &modelErr) && modelErr.Cause != nil {
		return modelErr.Cause.Error()
	}
	return err.Error()
}
