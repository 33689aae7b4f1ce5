package app

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func requirePython(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}
	return path
}

func TestSandbox_StreamsOutputLines(t *testing.T) {
	python := requirePython(t)
	sandbox := NewSandbox(python, NewLogger(&bytes.Buffer{}))

	var lines []string
	err := sandbox.Run(context.Background(), "for i in range(3):\n    print(i)\n", func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(lines) != 3 || lines[0] != "0" || lines[2] != "2" {
		t.Fatalf("lines = %v, want [0 1 2]", lines)
	}
}

func TestSandbox_TracebackSurfacesAsOutput(t *testing.T) {
	python := requirePython(t)
	sandbox := NewSandbox(python, NewLogger(&bytes.Buffer{}))

	var out strings.Builder
	err := sandbox.Run(context.Background(), "raise ValueError('nope')\n", func(line string) {
		out.WriteString(line)
		out.WriteString("\n")
	})
	if err != nil {
		t.Fatalf("Run returned error for a python exception: %v", err)
	}
	if !strings.Contains(out.String(), "ValueError") {
		t.Fatalf("output missing traceback: %q", out.String())
	}
}

func TestSandbox_ContextCancellation(t *testing.T) {
	python := requirePython(t)
	sandbox := NewSandbox(python, NewLogger(&bytes.Buffer{}))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_ = sandbox.Run(ctx, "import time\ntime.sleep(30)\n", func(string) {})
	if time.Since(start) > 5*time.Second {
		t.Fatalf("cancelled run did not return promptly")
	}
}
