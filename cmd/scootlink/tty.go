package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// stdoutIsTTY reports whether stdout is an interactive terminal. Output
// piped to a file or another process should stay plain, the same
// distinction a remote shell client draws before sizing a PTY.
func stdoutIsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// render applies style only when stdout is a terminal, so redirected output
// doesn't carry ANSI escape codes.
func render(style lipgloss.Style, s string) string {
	if !stdoutIsTTY() {
		return s
	}
	return style.Render(s)
}
