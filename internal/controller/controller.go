// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/ollama-chat/internal/export"
	"github.com/jeranaias/ollama-chat/internal/generation"
	"github.com/jeranaias/ollama-chat/internal/logging"
	"github.com/jeranaias/ollama-chat/internal/model"
	"github.com/jeranaias/ollama-chat/internal/session"
)

// Generator runs prompts in the background. *generation.Coordinator
// satisfies it.
type Generator interface {
	Submit(req generation.Request) (generation.Request, error)
	Poll() (generation.Result, bool)
	IsBusy() bool
	Current() (generation.Request, bool)
}

// ModelCatalog lists the models installed on the server.
// *ollama.ModelLister satisfies it.
type ModelCatalog interface {
	Invalidate()
	Names(ctx context.Context) []string
}

// FetchModels drops any cached model list and asks the server again. It
// blocks on the network, so the TUI runs it inside a tea.Cmd and hands the
// result to SetModels on the control loop.
func FetchModels(ctx context.Context, catalog ModelCatalog) []string {
	catalog.Invalidate()
	return catalog.Names(ctx)
}

// Forgetter drops model-side state for an abandoned thread.
// *engine.Engine satisfies it.
type Forgetter interface {
	Forget(threadID string)
}

// Delivery describes what Poll did with a finished generation.
type Delivery struct {
	// SessionID is the session that issued the request.
	SessionID int

	// Message is the appended reply or error message. It is zero when the
	// result was discarded.
	Message model.Message

	// Discarded is set when the issuing session was deleted or its
	// history cleared while the request was in flight.
	Discarded bool

	Result generation.Result
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller turns typed commands into store and generator operations and
// routes finished generations back to the session that asked for them.
//
// Like the store it wraps, it belongs to the control loop and is not safe
// for concurrent use.
type Controller struct {
	store     *session.Store
	gen       Generator
	sink      export.Sink
	forgetter Forgetter
	log       *zap.Logger

	models []string
	model  string

	exportDir    string
	exportFormat string
	lastExport   string
}

// Option configures a Controller.
type Option func(*Controller)

// WithForgetter sets who is told about abandoned threads.
func WithForgetter(f Forgetter) Option {
	return func(c *Controller) { c.forgetter = f }
}

// WithDefaultModel prefers name when the server lists it.
func WithDefaultModel(name string) Option {
	return func(c *Controller) { c.model = name }
}

// WithExportDir sets where bare export file names are written.
func WithExportDir(dir string) Option {
	return func(c *Controller) { c.exportDir = dir }
}

// WithExportFormat sets the format used when the user gives no file name.
func WithExportFormat(format string) Option {
	return func(c *Controller) { c.exportFormat = format }
}

// WithLogger sets the controller logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// New creates a controller. models is the server's model list; the
// configured default is used when listed, otherwise the first model.
func New(store *session.Store, gen Generator, sink export.Sink, models []string, opts ...Option) *Controller {
	c := &Controller{
		store:        store,
		gen:          gen,
		sink:         sink,
		models:       slices.Clone(models),
		exportFormat: "md",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.OrNop(c.log)

	if !slices.Contains(c.models, c.model) {
		c.model = ""
		if len(c.models) > 0 {
			c.model = c.models[0]
		}
	}
	return c
}

// Dispatch executes cmd. Refusals come back as *InvalidOperationError.
func (c *Controller) Dispatch(cmd Command) error {
	switch cmd := cmd.(type) {
	case SendPrompt:
		return c.send(cmd)
	case NewSession:
		c.store.Create()
		return nil
	case SwitchSession:
		if err := c.store.SwitchActive(cmd.Index); err != nil {
			return refuse(cmd, "No such session", err)
		}
		return nil
	case DeleteSession:
		return c.delete(cmd)
	case ClearHistory:
		return c.clear(cmd)
	case SelectModel:
		if !slices.Contains(c.models, cmd.Name) {
			return refuse(cmd, fmt.Sprintf("Unknown model %q", cmd.Name), nil)
		}
		c.model = cmd.Name
		c.log.Info("model selected", zap.String("model", cmd.Name))
		return nil
	case ExportSession:
		_, err := c.Export(cmd.Path)
		return err
	default:
		return fmt.Errorf("unknown command %T", cmd)
	}
}

func (c *Controller) send(cmd SendPrompt) error {
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		return refuse(cmd, "Prompt is empty", nil)
	}
	if c.gen.IsBusy() {
		return refuse(cmd, "Wait for the current response to finish", generation.ErrBusy)
	}
	if c.model == "" {
		return refuse(cmd, "No model selected", nil)
	}

	sess := c.store.Active()
	req, err := c.gen.Submit(generation.Request{
		SessionID: sess.ID,
		ThreadID:  sess.ThreadID,
		Prompt:    text,
		Model:     c.model,
	})
	if err != nil {
		if errors.Is(err, generation.ErrBusy) {
			return refuse(cmd, "Wait for the current response to finish", err)
		}
		return fmt.Errorf("submit prompt: %w", err)
	}

	// The result can only arrive through Poll on this goroutine, so the
	// user message always lands before the reply.
	if err := c.store.Append(sess.ID, model.NewUserMessage(text)); err != nil {
		return err
	}

	c.log.Info("prompt submitted",
		zap.String("request", req.ID),
		zap.Int("session", sess.ID),
		zap.String("model", c.model),
		zap.Int("chars", len(text)))
	return nil
}

func (c *Controller) delete(cmd DeleteSession) error {
	removed, err := c.store.Delete(cmd.Index)
	switch {
	case errors.Is(err, session.ErrLastSession):
		return refuse(cmd, "There must be at least one session", err)
	case err != nil:
		return refuse(cmd, "No such session", err)
	}

	c.forget(removed.ThreadID)
	c.log.Info("session deleted", zap.Int("session", removed.ID))
	return nil
}

func (c *Controller) clear(cmd ClearHistory) error {
	sess, err := c.store.At(cmd.Index)
	if err != nil {
		return refuse(cmd, "No such session", err)
	}
	if sess.IsEmpty() {
		return nil
	}

	old, err := c.store.ClearHistory(cmd.Index)
	if err != nil {
		return refuse(cmd, "No such session", err)
	}
	c.forget(old)
	c.log.Info("history cleared", zap.Int("session", sess.ID))
	return nil
}

func (c *Controller) forget(threadID string) {
	if c.forgetter != nil {
		c.forgetter.Forget(threadID)
	}
}

// CanExport reports why the active session cannot be exported, or nil.
func (c *Controller) CanExport() error {
	if c.store.Active().IsEmpty() {
		return refuse(ExportSession{}, "No messages to export", export.ErrEmptyHistory)
	}
	return nil
}

// DefaultExportPath is where an export with no file name is written.
func (c *Controller) DefaultExportPath() string {
	return export.ResolvePath("", c.exportDir, c.store.Active().Title, c.exportFormat)
}

// Export writes the active session and returns the path written.
func (c *Controller) Export(path string) (string, error) {
	if err := c.CanExport(); err != nil {
		return "", err
	}

	sess := c.store.Active()
	target := export.ResolvePath(path, c.exportDir, sess.Title, c.exportFormat)
	if err := export.Write(export.FromSession(sess, c.model), target, c.sink); err != nil {
		return "", fmt.Errorf("export %s: %w", target, err)
	}

	c.lastExport = target
	c.log.Info("session exported", zap.Int("session", sess.ID), zap.String("path", target))
	return target, nil
}

// =============================================================================
// POLLING
// =============================================================================

// Poll delivers a finished generation, if any, to the session that issued
// it. A result whose session is gone or whose thread was cleared is dropped.
func (c *Controller) Poll() (Delivery, bool) {
	res, ok := c.gen.Poll()
	if !ok {
		return Delivery{}, false
	}

	d := Delivery{SessionID: res.Request.SessionID, Result: res}

	sess, _, found := c.store.ByID(res.Request.SessionID)
	if !found || sess.ThreadID != res.Request.ThreadID {
		d.Discarded = true
		c.log.Info("stale result discarded",
			zap.String("request", res.Request.ID),
			zap.Int("session", res.Request.SessionID),
			zap.Bool("session_deleted", !found))
		return d, true
	}

	if !res.OK() {
		d.Message = model.NewErrorMessage(errorText(res.Err, res.Request.Model))
	} else {
		d.Message = model.NewAssistantMessage(res.Text)
	}
	if err := c.store.Append(sess.ID, d.Message); err != nil {
		c.log.Error("append reply", zap.Error(err))
	}
	return d, true
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Busy reports whether a generation is in flight.
func (c *Controller) Busy() bool {
	return c.gen.IsBusy()
}

// Pending returns the in-flight request, if any.
func (c *Controller) Pending() (generation.Request, bool) {
	return c.gen.Current()
}

// Model returns the model used for the next prompt.
func (c *Controller) Model() string {
	return c.model
}

// Models returns the available models.
func (c *Controller) Models() []string {
	return slices.Clone(c.models)
}

// NextModel returns the model after the current one, wrapping around.
func (c *Controller) NextModel() string {
	if len(c.models) == 0 {
		return ""
	}
	i := slices.Index(c.models, c.model)
	return c.models[(i+1)%len(c.models)]
}

// SetModels replaces the model list, keeping the current choice when it is
// still listed. An empty list is ignored: a failed refresh must not leave
// the user without a model.
func (c *Controller) SetModels(models []string) {
	if len(models) == 0 {
		return
	}
	c.log.Debug("models refreshed", zap.Int("count", len(models)))
	c.models = slices.Clone(models)
	if !slices.Contains(c.models, c.model) {
		c.model = ""
		if len(c.models) > 0 {
			c.model = c.models[0]
		}
	}
}

// Store returns the session store for read access.
func (c *Controller) Store() *session.Store {
	return c.store
}

// LastExport returns the path of the most recent export.
func (c *Controller) LastExport() string {
	return c.lastExport
}
