package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"redub/internal/deps"
	"redub/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 22
	statusIndent     = "  "
)

var statusStyles = map[statusKind]struct{ label, color string }{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

func (k statusKind) String() string { return statusStyles[k].label }

func paint(s, color string, colorize bool) string {
	if !colorize || color == "" {
		return s
	}
	return color + s + ansiReset
}

// renderStatusLine formats one check row as "  Label:   [KIND] message".
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	status := "[" + kind.String() + "]"
	if message != "" {
		status += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", status)
	return paint(line, statusStyles[kind].color, colorize)
}

// dependencyStatusLine renders a binary or python module probe. A missing
// optional tool (the whisper package when transcription runs remotely) is a
// warning.
func dependencyStatusLine(status deps.Status, colorize bool) string {
	kind, message := statusError, status.Detail
	switch {
	case status.Available:
		kind, message = statusOK, status.Command
	case status.Optional:
		kind = statusWarn
	}
	return renderStatusLine(status.Name, kind, message, colorize)
}

func preflightStatusLine(result preflight.Result, colorize bool) string {
	kind := statusError
	if result.Passed {
		kind = statusOK
	}
	return renderStatusLine(result.Name, kind, result.Detail, colorize)
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	return []string{
		paint(heading, ansiBlue, colorize),
		paint(strings.Repeat("-", len(heading)), ansiBlue, colorize),
	}
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
