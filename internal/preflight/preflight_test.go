package preflight

import (
	"context"
	"path/filepath"
	"testing"

	"murmur/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	if result := CheckDirectoryAccess("dir", dir); !result.Passed {
		t.Fatalf("expected pass for temp dir: %#v", result)
	}
	if result := CheckDirectoryAccess("dir", filepath.Join(dir, "missing")); result.Passed {
		t.Fatalf("expected failure for missing dir: %#v", result)
	}
	file := testsupport.WriteAudio(t, filepath.Join(dir, "clip.wav"))
	if result := CheckDirectoryAccess("dir", file); result.Passed {
		t.Fatalf("expected failure for regular file: %#v", result)
	}
}

func TestCheckDiskSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckDiskSpace("space", dir, 1); !result.Passed {
		t.Fatalf("expected pass with 1-byte floor: %#v", result)
	}
	if result := CheckDiskSpace("space", dir, 1<<62); result.Passed {
		t.Fatalf("expected failure with absurd floor: %#v", result)
	}
	if result := CheckDiskSpace("space", filepath.Join(dir, "missing"), 1); result.Passed {
		t.Fatalf("expected failure for missing path: %#v", result)
	}
}

func TestRunAllReportsMissingTools(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Transcription.Command = "definitely-not-installed-anywhere"
	dir := t.TempDir()
	cfg.Semantics.Command = testsupport.CopyTool(t, dir, "scorer")

	results := RunAll(context.Background(), cfg)
	if len(results) == 0 {
		t.Fatal("expected results")
	}

	failed := Failed(results)
	foundTranscription := false
	for _, result := range failed {
		if result.Name == "Transcription" {
			foundTranscription = true
		}
		if result.Name == "Semantics" {
			t.Fatalf("semantics tool resolves, should not fail: %#v", result)
		}
	}
	if !foundTranscription {
		t.Fatalf("missing transcriber not reported: %#v", results)
	}
}
