// Package secrets resolves sensitive values, such as the Gemini API key,
// from inline configuration or from a file on disk.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes where a secret comes from.
type Source struct {
	// Name identifies the secret in error messages, e.g. "gemini api key".
	Name string
	// Value is the secret itself, supplied inline via flags or config.
	Value string
	// File is a path to a file holding the secret. A set File wins over
	// Value, so keys can stay out of config files and shell history.
	File string
	// Hint is appended to the not-configured error to tell the operator
	// which setting to provide.
	Hint string
}

// Load resolves the secret and trims surrounding whitespace. It fails when
// neither File nor Value yield a non-empty secret.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		return loadFile(name, file)
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}
	if hint := strings.TrimSpace(src.Hint); hint != "" {
		return "", fmt.Errorf("%s is not configured (%s)", name, hint)
	}
	return "", fmt.Errorf("%s is not configured", name)
}

func loadFile(name, file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
	}
	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", fmt.Errorf("%s file %q is empty", name, file)
	}
	return secret, nil
}
