package main

import (
	"fmt"
	"os"

	"github.com/scootlink/scootlink/internal/token"
)

// loadToken reads a previously persisted AuthToken from path.
func loadToken(path string) (token.AuthToken, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return token.AuthToken{}, fmt.Errorf("read token file %s: %w", path, err)
	}
	return token.FromBytes(data)
}

// saveToken persists tok to path with owner-only permissions, since the
// token file is the sole secret standing between a local user and a paired
// scooter.
func saveToken(path string, tok token.AuthToken) error {
	if err := os.WriteFile(path, tok.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write token file %s: %w", path, err)
	}
	return nil
}
