package app

import (
	"bufio"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

// Sandbox executes committed code in an interpreter subprocess and streams
// its merged stdout/stderr back line by line. Callers pass the *committed*
// code, never a live buffer; the coordinator guarantees the sandbox runs
// exactly what the ledger recorded.
type Sandbox struct {
	Python string
	Logger *Logger
}

func NewSandbox(python string, logger *Logger) *Sandbox {
	if python == "" {
		python = "python3"
	}
	return &Sandbox{Python: python, Logger: logger}
}

// Run writes code to a temp file, executes it, and invokes onLine for every
// output line in arrival order. A nonzero exit is not an error: the
// interpreter's own traceback has already been streamed. Errors are reserved
// for failures to start or be scheduled at all.
func (s *Sandbox) Run(ctx context.Context, code string, onLine func(string)) error {
	dir, err := os.MkdirTemp("", "codepeer-run-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "main.py")
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, s.Python, path)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		s.Logger.Error("sandbox start failed", map[string]interface{}{"error": err.Error()})
		return err
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	emit := func(line string) {
		mu.Lock()
		onLine(line)
		mu.Unlock()
	}
	for _, pipe := range []interface{ Read([]byte) (int, error) }{stdout, stderr} {
		wg.Add(1)
		go func(r interface{ Read([]byte) (int, error) }) {
			defer wg.Done()
			scanner := bufio.NewScanner(r)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				emit(scanner.Text())
			}
		}(pipe)
	}
	wg.Wait()

	err = cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		s.Logger.Info("sandbox exited", map[string]interface{}{"code": exitErr.ExitCode()})
		return nil
	}
	return err
}
