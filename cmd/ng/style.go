package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ng/interpreter-go/pkg/runtime"
	"ng/interpreter-go/pkg/typechecker"
)

var (
	accentColor    = lipgloss.Color("#3B82F6")
	successColor   = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	highlightColor = lipgloss.Color("#F59E0B")

	promptStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(successColor)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	errorClassStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	nameStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)
)

// renderError styles a failure: runtime errors get their class highlighted and
// their location muted.
func renderError(err error) string {
	var rtErr *runtime.Error
	if !errors.As(err, &rtErr) {
		return errorStyle.Render(err.Error())
	}
	var b strings.Builder
	b.WriteString(errorClassStyle.Render(string(rtErr.Class)))
	if where := errorLocation(rtErr); where != "" {
		b.WriteString(" ")
		b.WriteString(mutedStyle.Render("at " + where))
	}
	b.WriteString(": ")
	b.WriteString(errorStyle.Render(rtErr.Message))
	return b.String()
}

func errorLocation(e *runtime.Error) string {
	switch {
	case e.Module != "" && !e.Span.IsZero():
		return e.Module + ":" + e.Span.String()
	case e.Module != "":
		return e.Module
	default:
		return e.Span.String()
	}
}

func renderDiagnostic(module string, d typechecker.Diagnostic) string {
	return fmt.Sprintf("%s %s %s",
		errorClassStyle.Render("typecheck"),
		mutedStyle.Render(module),
		errorStyle.Render(d.String()))
}

// renderSummary boxes an interpreter summary, highlighting section titles.
func renderSummary(title, summary string) string {
	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render(title)}
	for _, line := range strings.Split(strings.TrimRight(summary, "\n"), "\n") {
		if line == "" {
			continue
		}
		if strings.HasSuffix(line, ":") && !strings.HasPrefix(line, " ") {
			line = nameStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return borderStyle.Render(strings.Join(lines, "\n"))
}

func printError(msg string) {
	fmt.Fprintln(os.Stderr, errorStyle.Render(msg))
}
