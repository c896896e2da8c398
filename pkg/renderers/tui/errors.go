package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoTerminal is reported when stdin is not an interactive terminal.
	ErrNoTerminal = errors.New("tui: stdin is not a terminal")
)
