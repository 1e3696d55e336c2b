package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"ng/interpreter-go/pkg/interpreter"
	"ng/interpreter-go/pkg/parser"
	"ng/interpreter-go/pkg/runtime"
)

const (
	replPrompt             = "ng> "
	replContinuationPrompt = "... "
	replHistoryFile        = ".ng_history"
)

var replKeywords = []string{
	"as", "else", "export", "false", "fun", "if", "import", "loop",
	"new", "next", "property", "return", "true", "type", "val",
}

// replSession evaluates chunks of input against one root context, so later
// inputs see earlier definitions.
type replSession struct {
	interp *interpreter.Interpreter
	parser *parser.ModuleParser
}

func newReplSession(interp *interpreter.Interpreter) *replSession {
	return &replSession{interp: interp, parser: parser.NewModuleParser()}
}

// eval runs one complete input and renders its last expression value, or ""
// when the input produced unit.
func (r *replSession) eval(input string) (string, error) {
	mod, err := r.parser.ParseModule([]byte(input))
	if err != nil {
		return "", err
	}
	v, _, err := r.interp.EvaluateModule(mod)
	if err != nil {
		return "", err
	}
	if v == nil || v.Kind() == runtime.KindUnit {
		return "", nil
	}
	if s, ok := v.(runtime.String); ok {
		return fmt.Sprintf("%q", s.Val), nil
	}
	return v.Show(), nil
}

// complete offers keywords and root bindings matching the last word of line.
func (r *replSession) complete(line string) []string {
	start := strings.LastIndexAny(line, " \t(){}[],;.=+-*/<>!&|") + 1
	prefix, word := line[:start], line[start:]
	if word == "" {
		return nil
	}
	candidates := append([]string(nil), replKeywords...)
	candidates = append(candidates, r.interp.Context().Locals()...)
	sort.Strings(candidates)
	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(c, word) && c != word {
			out = append(out, prefix+c)
		}
	}
	return out
}

// command handles ':' commands. It reports false for :quit.
func (r *replSession) command(cmd string, out io.Writer) bool {
	switch strings.Fields(cmd)[0] {
	case ":quit", ":q", ":exit":
		return false
	case ":summary", ":s":
		summary := r.interp.Summary()
		if summary == "" {
			fmt.Fprintln(out, mutedStyle.Render("(nothing defined)"))
		} else {
			fmt.Fprintln(out, renderSummary("Bindings", summary))
		}
	case ":modules", ":m":
		for _, info := range r.interp.Registry().Modules() {
			state := "loaded"
			switch {
			case info.Native:
				state = "native"
			case info.Module != nil:
				state = "evaluated"
			}
			fmt.Fprintf(out, "  %s %s\n", nameStyle.Render(info.ID), mutedStyle.Render(state))
		}
	case ":help", ":h":
		fmt.Fprintln(out, replHelp())
	default:
		fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("unknown command %s (try :help)", cmd)))
	}
	return true
}

func replHelp() string {
	help := [][2]string{
		{":summary", "show objects, functions, types and modules"},
		{":modules", "list registry entries"},
		{":help", "show this help"},
		{":quit", "leave the REPL (or Ctrl+D)"},
	}
	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Help")}
	for _, h := range help {
		lines = append(lines, fmt.Sprintf("  %s  %s", nameStyle.Render(fmt.Sprintf("%-9s", h[0])), mutedStyle.Render(h[1])))
	}
	return borderStyle.Render(strings.Join(lines, "\n"))
}

// needsMoreInput reports whether brackets opened in input are still unclosed.
// Brackets inside string and char literals and comments do not count.
func needsMoreInput(input string) bool {
	depth := 0
	for i := 0; i < len(input); i++ {
		switch c := input[i]; c {
		case '"', '\'':
			for i++; i < len(input) && input[i] != c; i++ {
				if input[i] == '\\' {
					i++
				}
			}
		case '/':
			if i+1 < len(input) && input[i+1] == '/' {
				for i < len(input) && input[i] != '\n' {
					i++
				}
			} else if i+1 < len(input) && input[i+1] == '*' {
				end := strings.Index(input[i+2:], "*/")
				if end < 0 {
					return true
				}
				i += end + 3
			}
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	return depth > 0
}

func runRepl(args []string, logger *slog.Logger) int {
	if len(args) > 0 {
		printError(fmt.Sprintf("ng repl does not take arguments (received %s)", strings.Join(args, " ")))
		return 1
	}
	s, err := openProject(".", logger)
	if err != nil {
		printError(err.Error())
		return 1
	}
	reg, err := s.newRegistry(false)
	if err != nil {
		printError(err.Error())
		return 1
	}
	repl := newReplSession(s.newInterpreter(reg))

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(repl.complete)

	historyPath := filepath.Join(os.TempDir(), replHistoryFile)
	if f, err := os.Open(historyPath); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyPath); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}()

	out := os.Stdout
	fmt.Fprintln(out, promptStyle.Render(cliToolVersion))
	fmt.Fprintln(out, mutedStyle.Render("Type :help for commands, Ctrl+D to quit"))

	var buffer strings.Builder
	for {
		prompt := replPrompt
		if buffer.Len() > 0 {
			prompt = replContinuationPrompt
		}
		input, err := line.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				buffer.Reset()
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return 0
			}
			printError(fmt.Sprintf("error reading input: %v", err))
			return 1
		}

		trimmed := strings.TrimSpace(input)
		if buffer.Len() == 0 {
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, ":") {
				line.AppendHistory(trimmed)
				if !repl.command(trimmed, out) {
					return 0
				}
				continue
			}
		} else {
			buffer.WriteByte('\n')
		}
		buffer.WriteString(input)

		source := buffer.String()
		if needsMoreInput(source) {
			continue
		}
		buffer.Reset()
		line.AppendHistory(source)

		result, err := repl.eval(source)
		if err != nil {
			fmt.Fprintln(out, renderError(err))
			continue
		}
		if result != "" {
			fmt.Fprintln(out, resultStyle.Render(result))
		}
	}
}
