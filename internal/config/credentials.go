package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ReadToken reads the access token from path. Surrounding whitespace is dropped.
// The token itself never appears in returned errors.
func ReadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("unable to read token from file %s: %w", path, err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", path)
	}
	if strings.ContainsAny(token, " \t\r\n") {
		return "", errors.New("token file must contain exactly one token")
	}
	return token, nil
}
