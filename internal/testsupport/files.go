package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// WriteAudio drops a small fake audio clip at the target path.
func WriteAudio(t testing.TB, path string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("RIFF\x00\x00\x00\x00WAVEfmt "), 0o644); err != nil {
		t.Fatalf("write audio %s: %v", path, err)
	}
	return path
}

// WriteTool writes an executable shell script under dir and returns its path.
// The script body runs under /bin/sh with the tool's arguments.
func WriteTool(t testing.TB, dir, name, body string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write tool %s: %v", name, err)
	}
	return path
}

// CopyTool copies the output-producing stub most stage tests need: a tool
// that reads --input/--output pairs and copies input to output, exiting 0.
func CopyTool(t testing.TB, dir, name string) string {
	t.Helper()

	body := `in=""
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    --input) in="$2"; shift 2 ;;
    --output) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
[ -n "$in" ] || { echo "missing --input" >&2; exit 2; }
[ -n "$out" ] || { echo "missing --output" >&2; exit 2; }
cp "$in" "$out"`
	return WriteTool(t, dir, name, body)
}

// FailTool writes a stub tool that prints a diagnostic to stderr and exits
// with the given code without producing output.
func FailTool(t testing.TB, dir, name, message string, code int) string {
	t.Helper()

	body := "echo \"" + message + "\" >&2\nexit " + strconv.Itoa(code)
	return WriteTool(t, dir, name, body)
}
