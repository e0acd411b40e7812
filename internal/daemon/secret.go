// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/renameio/v2"
)

// SecretBytes is the amount of entropy in a generated signing secret.
const SecretBytes = 48

// GenerateSecret writes a fresh base64 signing secret to path, replacing any
// existing file atomically.
func GenerateSecret(path string) error {
	buf := make([]byte, SecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("generate secret: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(buf) + "\n"
	if err := renameio.WriteFile(path, []byte(encoded), 0o600); err != nil {
		return fmt.Errorf("write secret %s: %w", path, err)
	}
	return nil
}
