// Package secrets resolves credential values, preferring files over inline
// configuration so keys stay out of config files and process listings.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source names a secret and where to read it from. File wins over Value when
// both are set.
type Source struct {
	// Name labels the secret in error messages ("gemini api key").
	Name string
	// Value is an inline value from configuration or flags.
	Value string
	// File is a path to a file holding the value.
	File string
}

// Load resolves the secret and trims surrounding whitespace. It fails when
// neither the file nor the inline value yields a non-empty result.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		src.Value = string(data)
		src.File = file
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		if src.File != "" {
			return "", fmt.Errorf("%s file %q is empty", name, src.File)
		}
		return "", fmt.Errorf("%s is not configured", name)
	}

	return secret, nil
}
