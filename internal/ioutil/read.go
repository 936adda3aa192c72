package ioutil

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ErrorBodyLimit bounds how much of an upstream error body ends up in logs
const ErrorBodyLimit = 1024

// ReadLimited reads up to limit bytes from r and returns the content as a string.
// If reading fails, returns a string describing the read failure instead of silencing
// the error. This is intended for including response bodies in error messages and logs.
func ReadLimited(r io.Reader, limit int64) string {
	body, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return fmt.Sprintf("<unreadable: %v>", err)
	}
	return strings.TrimSpace(string(body))
}

// DecodeJSONLimited decodes a single JSON value from at most limit bytes of r
func DecodeJSONLimited(r io.Reader, limit int64, v any) error {
	if err := json.NewDecoder(io.LimitReader(r, limit)).Decode(v); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
	return nil
}
