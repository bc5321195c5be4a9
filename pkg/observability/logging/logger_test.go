// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_JSONFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "json", Output: &buf})

	logger.Info("dropped")
	logger.Warn("kept", "request_id", 7)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("invalid JSON log line: %v", err)
	}
	if rec["msg"] != "kept" {
		t.Errorf("msg = %v, want kept", rec["msg"])
	}
	if rec["request_id"] != float64(7) {
		t.Errorf("request_id = %v, want 7", rec["request_id"])
	}
}

func TestNew_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "api.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("previous line\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	logger := New(Config{Format: "text", Output: &buf, File: path})
	logger.Info("hello file")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "previous line\n") {
		t.Errorf("expected existing content preserved, got %q", data)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Errorf("expected record in file, got %q", data)
	}
	if !strings.Contains(buf.String(), "hello file") {
		t.Errorf("expected record on stream, got %q", buf.String())
	}
}

func TestNew_UnwritableFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	logger := New(Config{Output: &buf, File: filepath.Join(blocker, "api.log")})
	logger.Info("still logging")

	if !strings.Contains(buf.String(), "continuing without log file") {
		t.Errorf("expected fallback notice, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "still logging") {
		t.Errorf("expected record on stream, got %q", buf.String())
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close without file: %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestNew_FileReceivesRecordsWhenOutputFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	logger := New(Config{Level: "info", Format: "text", Output: failingWriter{}, File: path})
	logger.Info("still recorded")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "still recorded") {
		t.Errorf("expected record in log file, got %q", data)
	}
}

func TestFanoutWriter(t *testing.T) {
	var a, b bytes.Buffer
	n, err := fanoutWriter{&a, failingWriter{}, &b}.Write([]byte("x"))
	if err != nil || n != 1 {
		t.Fatalf("Write() = %d, %v; want 1, nil", n, err)
	}
	if a.String() != "x" || b.String() != "x" {
		t.Errorf("got %q and %q, want both %q", a.String(), b.String(), "x")
	}

	if _, err := (fanoutWriter{failingWriter{}, failingWriter{}}).Write([]byte("x")); err == nil {
		t.Error("expected an error when every writer fails")
	}
}
