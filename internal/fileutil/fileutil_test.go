package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"murmur/internal/fileutil"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.wav")
	dst := filepath.Join(dir, "dst.wav")
	if err := os.WriteFile(src, []byte("RIFF....WAVE"), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}

	if err := fileutil.CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read dst: %v", err)
	}
	if string(data) != "RIFF....WAVE" {
		t.Fatalf("unexpected dst contents: %q", data)
	}
}

func TestCheckReadableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := fileutil.CheckReadableFile(path); err != nil {
		t.Fatalf("expected readable, got %v", err)
	}
	if err := fileutil.CheckReadableFile(filepath.Join(dir, "missing.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if err := fileutil.CheckReadableFile(dir); err == nil {
		t.Fatal("expected error for directory")
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exists")
	if fileutil.FileExists(path) {
		t.Fatal("missing file reported as existing")
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !fileutil.FileExists(path) {
		t.Fatal("existing file not reported")
	}
	if fileutil.FileExists(dir) {
		t.Fatal("directory reported as file")
	}
}
