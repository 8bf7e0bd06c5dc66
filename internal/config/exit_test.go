package config_test

import (
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"

	"wedding-seating/internal/config"
)

// os.Exit cannot be intercepted in-process, so the test re-runs itself.
func TestExitf(t *testing.T) {
	if os.Getenv("TEST_EXITF_SUBPROCESS") == "1" {
		config.Exitf("store: %s", "corrupt")
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestExitf$")
	cmd.Env = append(os.Environ(), "TEST_EXITF_SUBPROCESS=1")
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *exec.ExitError, got %T: %v", err, err)
	}
	if exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %d", exitErr.ExitCode())
	}
	if !strings.Contains(string(out), "store: corrupt") {
		t.Fatalf("unexpected output %q", out)
	}
}
