package tui

import (
	"os"
	"path/filepath"
)

// DefaultLogFilePath returns the path of the rotating log file.
// If REPOST_LOG_FILE is set, uses that path.
// Otherwise, uses ~/.repost/logs/repost.log
func DefaultLogFilePath() string {
	if customPath := os.Getenv("REPOST_LOG_FILE"); customPath != "" {
		return customPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if we can't get home dir
		return "repost.log"
	}

	return filepath.Join(homeDir, ".repost", "logs", "repost.log")
}
