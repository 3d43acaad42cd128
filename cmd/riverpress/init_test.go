package main

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func TestRunInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site")
	if err := runInit([]string{dir}); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}
	path := filepath.Join(dir, ".env")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read .env: %v", err)
	}
	if !regexp.MustCompile(`(?m)^SECRET_KEY=[0-9a-f]{64}$`).Match(data) {
		t.Errorf("missing generated SECRET_KEY:\n%s", data)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %o, want 600", perm)
	}

	if err := runInit([]string{dir}); err == nil {
		t.Error("second init should refuse to overwrite")
	}
	again, _ := os.ReadFile(path)
	if string(again) != string(data) {
		t.Error(".env changed by the refused init")
	}
}

func TestRunInitUsage(t *testing.T) {
	if err := runInit([]string{"a", "b"}); err == nil {
		t.Error("expected a usage error for extra arguments")
	}
}
