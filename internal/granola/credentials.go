// Package granola talks to the Granola desktop app's token file and its
// document API.
package granola

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/starford/granola-sync/internal/apperr"
)

// TokenFile reads the access token the desktop app keeps on disk.
type TokenFile struct{}

// Token returns the access token stored at path. The file holds either a
// workos_tokens or cognito_tokens entry (a JSON string or object carrying
// access_token) or a top-level access_token.
func (TokenFile) Token(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: no credentials path configured", apperr.ErrNoToken)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s not found", apperr.ErrNoToken, path)
		}
		return "", fmt.Errorf("%w: read %s: %v", apperr.ErrNoToken, path, err)
	}
	token, err := ParseToken(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", apperr.ErrNoToken, path, err)
	}
	return token, nil
}

// ParseToken extracts the access token from the contents of a token file.
func ParseToken(data []byte) (string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", fmt.Errorf("parse token file: %w", err)
	}
	for _, key := range []string{"workos_tokens", "cognito_tokens"} {
		if nested, ok := raw[key]; ok {
			if tok := accessToken(nested); tok != "" {
				return tok, nil
			}
		}
	}
	if tok := accessToken(data); tok != "" {
		return tok, nil
	}
	return "", errors.New("no access_token in token file")
}

// accessToken reads access_token from an object, or from a JSON string that
// itself encodes such an object.
func accessToken(msg json.RawMessage) string {
	var encoded string
	if err := json.Unmarshal(msg, &encoded); err == nil {
		msg = json.RawMessage(encoded)
	}
	var obj struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(msg, &obj); err != nil {
		return ""
	}
	return strings.TrimSpace(obj.AccessToken)
}
