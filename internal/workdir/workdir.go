// Package workdir manages the lectio working directory.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	audioDir = "audio"
	logsDir  = "logs"
	statsDir = "stats"
)

// Root returns the base directory for all lectio working files.
// The path is expanded at runtime to resolve to:
//
//	$HOME/Documents/Alkime/Lectio
func Root() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, "Documents", "Alkime", "Lectio"), nil
}

// AudioPath returns where fetched recording audio is written.
func AudioPath(filename string) (string, error) {
	return filePath(audioDir, filename)
}

// LogPath returns the TUI log file path.
func LogPath() (string, error) {
	return filePath(logsDir, "lectio.log")
}

// StatsPath returns where exported statistics charts are written.
func StatsPath(filename string) (string, error) {
	return filePath(statsDir, filename)
}

// Prep ensures that the working directories exist.
func Prep() error {
	root, err := Root()
	if err != nil {
		return err
	}

	for _, dir := range []string{audioDir, logsDir, statsDir} {
		path := filepath.Join(root, dir)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create working directory %s: %w", path, err)
		}
	}

	return nil
}

func filePath(dir, filename string) (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, dir, filename), nil
}
