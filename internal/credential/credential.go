// Package credential reads the model API key from its one-line file.
package credential

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMissing means the credential file does not exist.
var ErrMissing = errors.New("api key file not found")

// Load reads the key once; callers cache the returned value for the process lifetime.
func Load(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: '%s'", ErrMissing, path)
		}
		return "", fmt.Errorf("read api key file '%s': %w", path, err)
	}
	key := strings.TrimSpace(string(b))
	if key == "" {
		return "", fmt.Errorf("api key file '%s' is empty", path)
	}
	return key, nil
}
