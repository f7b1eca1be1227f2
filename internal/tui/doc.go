// Package tui provides the terminal user interface for repost.
//
// It handles:
//   - Structured logging and status reporting (Splog)
//   - Confirmation, title and note prompts (using bubbletea and survey)
//   - Outcome styling (using lipgloss)
package tui
