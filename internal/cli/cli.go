// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - argument parsing and the small one-shot commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"

	"github.com/jeranaias/ollama-chat/internal/ollama"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdModels
	CmdVersion
	CmdHelp
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdModels:
		return "models"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Model overrides the configured default model.
	Model string

	// ConfigPath loads this file instead of ~/.ollama-chat/config.toml.
	ConfigPath string

	// Raw holds the arguments left after the command.
	Raw []string
}

// ErrUsage is wrapped by every argument error.
var ErrUsage = errors.New("usage error")

const usageText = `ollama-chat - chat with a local Ollama server

Usage:
  ollama-chat [flags]            Start the full-screen client (default)
  ollama-chat tui [flags]        Same as above
  ollama-chat chat [flags]       Line-mode chat for plain terminals and pipes
  ollama-chat models             List the models the server offers
  ollama-chat version            Show version information
  ollama-chat help               Show this help

Flags:
  -m, --model NAME     Model to start with (default: config, then first listed)
  -c, --config PATH    Config file (default: ~/.ollama-chat/config.toml)
  -h, --help           Show this help
  -v, --version        Show version information

Environment:
  OLLAMA_HOST             Ollama address, as used by the ollama CLI
  OLLAMA_CHAT_URL         Ollama base URL (wins over OLLAMA_HOST)
  OLLAMA_CHAT_MODEL       Default model
  OLLAMA_CHAT_LOG_LEVEL   debug, info, warn or error
  OLLAMA_CHAT_EXPORT_DIR  Where exports without a directory are written

Version: %s
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "ollama-chat version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
}

// Parse parses command-line arguments (without the program name).
func Parse(argv []string) (Command, Args, error) {
	remaining, args, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, args, err
	}

	if len(remaining) == 0 {
		return CmdTUI, args, nil
	}

	cmd := strings.ToLower(remaining[0])
	args.Raw = remaining[1:]

	switch cmd {
	case "tui":
		return CmdTUI, args, nil
	case "chat", "repl":
		return CmdChat, args, nil
	case "models", "list":
		return CmdModels, args, nil
	case "version", "-v", "--version":
		return CmdVersion, args, nil
	case "help", "-h", "--help":
		return CmdHelp, args, nil
	default:
		return CmdHelp, args, fmt.Errorf("%w: unknown command %q", ErrUsage, remaining[0])
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(argv []string) ([]string, Args, error) {
	var (
		remaining []string
		args      Args
	)

	value := func(i int, flag string) (string, error) {
		if i+1 >= len(argv) || strings.HasPrefix(argv[i+1], "-") {
			return "", fmt.Errorf("%w: %s needs a value", ErrUsage, flag)
		}
		return argv[i+1], nil
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]

		switch {
		case arg == "-m" || arg == "--model":
			v, err := value(i, arg)
			if err != nil {
				return nil, args, err
			}
			args.Model = v
			i++
		case strings.HasPrefix(arg, "--model="):
			args.Model = strings.TrimPrefix(arg, "--model=")
		case arg == "-c" || arg == "--config":
			v, err := value(i, arg)
			if err != nil {
				return nil, args, err
			}
			args.ConfigPath = v
			i++
		case strings.HasPrefix(arg, "--config="):
			args.ConfigPath = strings.TrimPrefix(arg, "--config=")
		default:
			remaining = append(remaining, arg)
		}
	}

	return remaining, args, nil
}

// PrintModels lists names, marking current with an asterisk.
func PrintModels(w io.Writer, names []string, current string) {
	for _, name := range names {
		marker := " "
		if name == current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s\n", marker, name)
	}
}

// PrintModelDetails lists installed models by name with their size and
// parameter count, marking current with an asterisk.
func PrintModelDetails(w io.Writer, models []ollama.ModelInfo, current string) {
	sorted := append([]ollama.ModelInfo(nil), models...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	width := 0
	for _, m := range sorted {
		width = max(width, len(m.Name))
	}
	for _, m := range sorted {
		if m.Name == "" {
			continue
		}
		marker := " "
		if m.Name == current {
			marker = "*"
		}
		line := fmt.Sprintf("%s %-*s  %8s", marker, width, m.Name, m.FormatSize())
		if p := m.Details.ParameterSize; p != "" {
			line += "  " + p
		}
		fmt.Fprintln(w, line)
	}
}
