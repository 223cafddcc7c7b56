// Package codec converts arbitrary text to and from a single-line,
// transport-safe form so it can be embedded in a prompt without escaping.
package codec

import (
	"encoding/base64"
	"fmt"
)

// Encode returns the standard base64 form of text.
func Encode(text string) string {
	return base64.StdEncoding.EncodeToString([]byte(text))
}

// Decode reverses Encode.
func Decode(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}

	return string(raw), nil
}
