package diag

import (
	"os"
	"testing"
)

// captureStderr redirects os.Stderr for the duration of fn and returns what
// was written to it.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	orig := os.Stderr
	os.Stderr = w
	defer func() { os.Stderr = orig }()

	fn()

	w.Close()
	buf := make([]byte, 4096)
	n, _ := r.Read(buf)
	return string(buf[:n])
}

func TestPrintfGatedByVerbose(t *testing.T) {
	out := captureStderr(t, func() {
		New(false).Printf("allocated %d instructions", 3)
	})
	if out != "" {
		t.Fatalf("non-verbose Printf wrote %q, want nothing", out)
	}
}

func TestPrintfEmitsWhenVerbose(t *testing.T) {
	out := captureStderr(t, func() {
		New(true).Printf("allocated %d instructions", 3)
	})
	if want := "allocated 3 instructions\n"; out != want {
		t.Fatalf("verbose Printf wrote %q, want %q", out, want)
	}
}
