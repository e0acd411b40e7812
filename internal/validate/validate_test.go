// SPDX-License-Identifier: MIT

package validate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestValidator_URL(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid http", "http://example.com", false},
		{"valid https with path", "https://example.com/bucket", false},
		{"empty url", "", true},
		{"no host", "http://", true},
		{"invalid scheme", "ftp://example.com", true},
		{"no scheme", "example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.URL("url", tt.value, []string{"http", "https"})
			if tt.wantErr == v.IsValid() {
				t.Errorf("IsValid() = %v, wantErr %v (%v)", v.IsValid(), tt.wantErr, v.Err())
			}
		})
	}
}

func TestRangeAndPositive(t *testing.T) {
	v := New()
	Range(v, "fft", 2048, 32, 32768)
	Range(v, "ttl", 90*time.Second, time.Second, time.Hour)
	Positive(v, "segment", int64(81920))
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}

	Range(v, "fft", 16, 32, 32768)
	Positive(v, "pool", 0)
	err := v.Err()
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Err() = %T, want ValidationError", err)
	}
	if got := strings.Join(ve.Fields(), ","); got != "fft,pool" {
		t.Fatalf("Fields() = %q", got)
	}
}

func TestValidator_Directory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	v := New()
	v.Directory("root", dir)
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}
	v.Directory("missing", filepath.Join(dir, "nope"))
	v.Directory("file", file)
	v.Directory("empty", "")
	if len(v.Err().(ValidationError).Errors()) != 3 {
		t.Fatalf("expected 3 errors, got %v", v.Err())
	}
}

func TestValidator_MinBytesRedacts(t *testing.T) {
	v := New()
	v.MinBytes("secret", "short-secret", 32)
	err := v.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "short-secret") {
		t.Fatalf("secret leaked in %q", err.Error())
	}
	if got := err.(ValidationError).Errors()[0].Value; got != "<redacted>" {
		t.Fatalf("Value = %v", got)
	}
}

func TestValidator_OneOfAndCheck(t *testing.T) {
	v := New()
	v.OneOf("backend", "local", []string{"local", "remote"})
	v.Check(true, "x", "never", nil)
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}
	v.OneOf("backend", "s3", []string{"local", "remote"})
	v.Check(false, "ceiling", "too small", 1)
	v.NotEmpty("name", "  ")
	if n := len(v.Err().(ValidationError).Errors()); n != 3 {
		t.Fatalf("expected 3 errors, got %d", n)
	}
}
