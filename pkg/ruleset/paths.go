package ruleset

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const sourceFileName = "rules.yaml"

// GetPath returns the path of the user's rule source file. It checks
// $XDG_CONFIG_HOME first, then falls back to ~/.config, and finally to a
// temp directory.
func GetPath() string {
	if xdgHome, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && xdgHome != "" {
		return filepath.Join(xdgHome, "tendercheck", sourceFileName)
	}

	usrHome, err := os.UserHomeDir()
	if err == nil && usrHome != "" {
		return filepath.Join(usrHome, ".config", "tendercheck", sourceFileName)
	}

	tmpPath := filepath.Join(os.TempDir(), "tendercheck", sourceFileName)

	slog.Warn("could not determine user config directory, using temp path",
		slog.String("path", tmpPath),
		slog.Any("error", fmt.Errorf("$XDG_CONFIG_HOME is unset, fall back to home directory: %w", err)),
	)

	return tmpPath
}
