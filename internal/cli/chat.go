// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - line-mode chat over the same controller as the TUI.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/ollama-chat/internal/controller"
	"github.com/jeranaias/ollama-chat/internal/logging"
	"github.com/jeranaias/ollama-chat/internal/markdown"
	"github.com/jeranaias/ollama-chat/internal/model"
	"github.com/jeranaias/ollama-chat/internal/ui/components"
	"github.com/jeranaias/ollama-chat/internal/ui/styles"
	"github.com/jeranaias/ollama-chat/internal/util"
)

// DefaultPollInterval is used when REPLConfig.PollInterval is zero.
const DefaultPollInterval = 100 * time.Millisecond

// promptTitleRunes bounds the session title shown in the prompt.
const promptTitleRunes = 20

// REPLConfig carries the settings line mode reads.
type REPLConfig struct {
	PollInterval time.Duration
	Profile      termenv.Profile
	CodeStyle    string
	Width        int
	Logger       *zap.Logger

	// Models is asked for a fresh model list by /models. Nil keeps the
	// list from startup.
	Models controller.ModelCatalog
}

// =============================================================================
// REPL
// =============================================================================

// REPL is the line-mode chat loop. Like the TUI it is the only goroutine
// that touches the controller; replies arrive through a ticker-driven poll.
type REPL struct {
	ctl   *controller.Controller
	in    LineReader
	w     io.Writer
	out   *termenv.Output
	theme *styles.Theme

	poll    time.Duration
	width   int
	log     *zap.Logger
	catalog controller.ModelCatalog
}

// NewREPL creates a REPL reading from in and writing to w.
func NewREPL(ctl *controller.Controller, in LineReader, w io.Writer, cfg REPLConfig) *REPL {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Width <= 0 {
		cfg.Width = DefaultTerminalWidth
	}
	return &REPL{
		ctl:   ctl,
		in:    in,
		w:     w,
		out:   termenv.NewOutput(w, termenv.WithProfile(cfg.Profile)),
		theme: styles.NewTheme(cfg.CodeStyle),
		poll:  cfg.PollInterval,
		width: cfg.Width,
		log:   logging.OrNop(cfg.Logger).Named("repl"),

		catalog: cfg.Models,
	}
}

// Run reads prompts until EOF, Ctrl+C, /quit or ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	r.printWelcome()

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := r.in.Prompt(r.prompt())
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(r.w)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "/"):
			if quit := r.command(line); quit {
				return nil
			}
		default:
			if err := r.send(ctx, line); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	}
}

func (r *REPL) prompt() string {
	title := util.TruncateRunes(util.SingleLine(r.ctl.Store().Active().Title), promptTitleRunes)
	return fmt.Sprintf("[%s] › ", title)
}

// send submits text and blocks until the reply is delivered.
func (r *REPL) send(ctx context.Context, text string) error {
	if err := r.ctl.Dispatch(controller.SendPrompt{Text: text}); err != nil {
		r.printNotice(err)
		return nil
	}
	fmt.Fprintln(r.w, r.out.String(components.GeneratingText).Faint())
	return r.wait(ctx)
}

// wait polls the controller until a result arrives.
func (r *REPL) wait(ctx context.Context) error {
	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d, ok := r.ctl.Poll()
			if !ok {
				continue
			}
			if d.Discarded {
				r.log.Debug("reply discarded", zap.Int("session", d.SessionID))
				return nil
			}
			r.printMessage(d.Message)
			return nil
		}
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

const helpText = `Commands:
  /new               Start a new session
  /sessions          List sessions
  /switch N          Switch to session N
  /delete [N]        Delete session N (default: current)
  /clear             Clear the current session
  /model [NAME]      Show models, or switch to NAME
  /models            Ask the server for its models again
  /export [PATH]     Export the current session (.md, .txt, .json, .html)
  /history           Show the current session
  /help              Show this help
  /quit              Leave`

// command runs a slash command and reports whether the REPL should exit.
func (r *REPL) command(line string) bool {
	fields := strings.Fields(line)
	name, rest := strings.ToLower(fields[0]), fields[1:]
	arg := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	switch name {
	case "/quit", "/exit", "/q":
		return true

	case "/help", "/?":
		fmt.Fprintln(r.w, helpText)

	case "/new":
		r.dispatch(controller.NewSession{})
		r.printInfo("Started " + r.ctl.Store().Active().Title)

	case "/sessions", "/ls":
		r.printSessions()

	case "/switch":
		index, ok := r.sessionIndex(rest, -1)
		if !ok {
			return false
		}
		if r.dispatch(controller.SwitchSession{Index: index}) {
			r.printHistory()
		}

	case "/delete":
		index, ok := r.sessionIndex(rest, r.ctl.Store().ActiveIndex())
		if !ok {
			return false
		}
		if r.dispatch(controller.DeleteSession{Index: index}) {
			r.printInfo("Deleted. Now in " + r.ctl.Store().Active().Title)
		}

	case "/clear":
		if r.ctl.Store().Active().IsEmpty() {
			return false
		}
		answer, err := r.in.Prompt("Clear all messages in this session? (y/n) ")
		if err != nil || !strings.EqualFold(strings.TrimSpace(answer), "y") {
			return false
		}
		if r.dispatch(controller.ClearHistory{Index: r.ctl.Store().ActiveIndex()}) {
			r.printInfo("History cleared")
		}

	case "/models":
		r.refreshModels()
		PrintModels(r.w, r.ctl.Models(), r.ctl.Model())

	case "/model":
		if arg == "" {
			PrintModels(r.w, r.ctl.Models(), r.ctl.Model())
			return false
		}
		if r.dispatch(controller.SelectModel{Name: arg}) {
			r.printInfo("Model: " + arg)
		}

	case "/export":
		if r.dispatch(controller.ExportSession{Path: arg}) {
			fmt.Fprintln(r.w, r.out.String(styles.StatusIndicators.Success+" Exported to "+r.ctl.LastExport()).
				Foreground(r.out.Color("#34D399")))
		}

	case "/history":
		r.printHistory()

	default:
		r.printNotice(fmt.Errorf("unknown command %s, type /help", fields[0]))
	}
	return false
}

// refreshModels replaces the controller's model list with the server's.
func (r *REPL) refreshModels() {
	if r.catalog == nil {
		return
	}
	names := controller.FetchModels(context.Background(), r.catalog)
	if len(names) == 0 {
		r.printNotice(errors.New("could not list models, is Ollama running?"))
		return
	}
	r.ctl.SetModels(names)
}

// sessionIndex parses a 1-based session number. With no argument it
// returns fallback, or complains when fallback is negative.
func (r *REPL) sessionIndex(rest []string, fallback int) (int, bool) {
	if len(rest) == 0 {
		if fallback < 0 {
			r.printNotice(errors.New("which session? see /sessions"))
			return 0, false
		}
		return fallback, true
	}
	n, err := strconv.Atoi(rest[0])
	if err != nil {
		r.printNotice(fmt.Errorf("%q is not a session number", rest[0]))
		return 0, false
	}
	return n - 1, true
}

func (r *REPL) dispatch(cmd controller.Command) bool {
	if err := r.ctl.Dispatch(cmd); err != nil {
		r.printNotice(err)
		return false
	}
	return true
}

// =============================================================================
// OUTPUT
// =============================================================================

func (r *REPL) printWelcome() {
	fmt.Fprintln(r.w, r.out.String("Hello! How can I help you today?").Bold())
	fmt.Fprintf(r.w, "Active model: %s\n", r.out.String(r.ctl.Model()).Foreground(r.out.Color("#22D3EE")))
	fmt.Fprintf(r.w, "Try: %s\n", strings.Join(components.Tips, " · "))
	fmt.Fprintln(r.w, r.out.String("Type /help for commands.").Faint())
	fmt.Fprintln(r.w)
}

func (r *REPL) printNotice(err error) {
	msg := styles.StatusIndicators.Error + " " + controller.Notice(err)
	fmt.Fprintln(r.w, r.out.String(msg).Foreground(r.out.Color("#FB7185")))
}

func (r *REPL) printInfo(msg string) {
	fmt.Fprintln(r.w, r.out.String(styles.StatusIndicators.Info+" "+msg).Foreground(r.out.Color("#22D3EE")))
}

func (r *REPL) printSessions() {
	store := r.ctl.Store()
	for i, sess := range store.Sessions() {
		marker := " "
		if i == store.ActiveIndex() {
			marker = "*"
		}
		fmt.Fprintf(r.w, "%s %d. %s (%d messages)\n", marker, i+1, sess.Title, len(sess.History))
	}
}

func (r *REPL) printHistory() {
	sess := r.ctl.Store().Active()
	fmt.Fprintln(r.w, r.out.String("── "+sess.Title+" ──").Bold())
	for _, msg := range sess.History {
		r.printMessage(msg)
	}
}

func (r *REPL) printMessage(msg model.Message) {
	color := "#A78BFA"
	switch {
	case msg.Role == model.RoleUser:
		color = "#22D3EE"
	case msg.IsError:
		color = "#FB7185"
	}

	name := r.out.String(msg.Role.DisplayName()).Bold().Foreground(r.out.Color(color))
	fmt.Fprintf(r.w, "%s %s\n", name, r.out.String("· "+msg.Clock()).Faint())
	fmt.Fprintln(r.w, r.renderSegments(markdown.Segments(msg.Text)))
	fmt.Fprintln(r.w)
}

// renderSegments styles segmenter output with termenv. Code blocks are
// highlighted when the terminal has colors and fenced otherwise.
func (r *REPL) renderSegments(segs []markdown.Segment) string {
	var b strings.Builder
	lineStart := true

	for _, seg := range segs {
		switch seg.Kind {
		case markdown.KindPlain:
			b.WriteString(seg.Text)
		case markdown.KindBold:
			b.WriteString(r.out.String(seg.Text).Bold().String())
		case markdown.KindInlineCode:
			b.WriteString(r.out.String(seg.Text).Foreground(r.out.Color("#22D3EE")).String())
		case markdown.KindBreak:
			b.WriteString("\n")
			lineStart = true
			continue
		case markdown.KindSpacer:
			continue
		case markdown.KindCodeBlock:
			if !lineStart {
				b.WriteString("\n")
			}
			b.WriteString(r.renderCode(seg))
			b.WriteString("\n")
			lineStart = true
			continue
		}
		lineStart = false
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *REPL) renderCode(seg markdown.Segment) string {
	if r.out.Profile == termenv.Ascii {
		return "```" + seg.Language + "\n" + seg.Text + "\n```"
	}
	cb := components.NewCodeBlock(seg.Language, seg.Text)
	cb.SetMaxWidth(r.width)
	return cb.Render(r.theme)
}
