// Package config loads application configuration from Viper and the
// environment.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a path from config into an absolute filesystem path:
// a leading ~ becomes the user's home directory and $VAR references are
// expanded. Paths that need no expansion pass through unchanged.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return path
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}
