// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads converter credentials from a directory of plain-text
// files. Each file is one secret: the file name is the key and the trimmed
// contents are the value.
//
// Recognized keys: openai-api-key (enables image captioning).
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// KeyCaptioning names the secret holding the image captioning API key.
const KeyCaptioning = "openai-api-key"

// Load reads all files in dir and returns a map of file name to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("could not read secret", "name", name, "error", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// CaptionKey returns the captioning key, preferring override when it is
// set (typically from the environment or config file).
func CaptionKey(secrets map[string]string, override string) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	return secrets[KeyCaptioning]
}
