// SPDX-License-Identifier: MIT
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/trackgate/internal/config"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := stdout
	stdout = buf
	t.Cleanup(func() { stdout = prev })
	return buf
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func validYAML(t *testing.T) string {
	root := t.TempDir()
	return "storage:\n  root: " + root + "\ncatalog:\n  path: \":memory:\"\nviewers:\n  - id: alice\n    token: alice-token\n"
}

func TestConfigValidate(t *testing.T) {
	t.Setenv(config.EnvSecret, strings.Repeat("k", 40))
	out := captureStdout(t)

	path := writeConfig(t, validYAML(t))
	assert.Equal(t, 0, runConfigCLI([]string{"validate", "-f", path}))
	assert.Contains(t, out.String(), "is valid")
}

func TestConfigValidate_Failures(t *testing.T) {
	t.Setenv(config.EnvSecret, "short")
	captureStdout(t)

	path := writeConfig(t, validYAML(t))
	assert.Equal(t, 1, runConfigCLI([]string{"validate", "-f", path}))

	t.Setenv(config.EnvSecret, strings.Repeat("k", 40))
	bad := writeConfig(t, "nonsense: true\n")
	assert.Equal(t, 1, runConfigCLI([]string{"validate", "-f", bad}))

	assert.Equal(t, 2, runConfigCLI([]string{"frobnicate"}))
}

func TestConfigDump_RedactsSecrets(t *testing.T) {
	secret := strings.Repeat("k", 40)
	t.Setenv(config.EnvSecret, secret)
	out := captureStdout(t)

	path := writeConfig(t, validYAML(t))
	require.Equal(t, 0, runConfigCLI([]string{"dump", "-f", path, "--format=json"}))

	assert.NotContains(t, out.String(), secret)
	assert.NotContains(t, out.String(), "alice-token")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, redacted, decoded["Secret"])
}

func TestConfigDump_YAMLOmitsSecret(t *testing.T) {
	secret := strings.Repeat("k", 40)
	t.Setenv(config.EnvSecret, secret)
	out := captureStdout(t)

	path := writeConfig(t, validYAML(t))
	require.Equal(t, 0, runConfigCLI([]string{"dump", "-f", path}))
	assert.Contains(t, out.String(), "storage:")
	assert.NotContains(t, out.String(), secret)
}

func TestGenSecret(t *testing.T) {
	out := captureStdout(t)
	path := filepath.Join(t.TempDir(), "secret")

	assert.Equal(t, 2, runGenSecret(nil))
	require.Equal(t, 0, runGenSecret([]string{"-o", path}))
	assert.Contains(t, out.String(), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(strings.TrimSpace(string(raw))), 32)
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv(config.EnvConfigFile, "/etc/trackgate.yaml")
	assert.Equal(t, "/etc/trackgate.yaml", resolveConfigPath(""))
	assert.Equal(t, "/tmp/x.yaml", resolveConfigPath(" /tmp/x.yaml "))
}
