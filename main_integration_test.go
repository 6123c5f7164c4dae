package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestBinary(t *testing.T) string {
	binName := "voxbridge_it_bin"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	bin := filepath.Join(t.TempDir(), binName)
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Env = os.Environ()
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build binary: %v\n%s", err, string(out))
	}
	return bin
}

// isolatedEnv keeps the binary away from the real ~/.voxbridge.
func isolatedEnv(t *testing.T, apiURL string) []string {
	dir := t.TempDir()
	return append(os.Environ(),
		"HOME="+dir,
		"VOXBRIDGE_CONFIG="+filepath.Join(dir, "config.yaml"),
		"VOXBRIDGE_DB_PATH="+filepath.Join(dir, "voxbridge.db"),
		"VOXBRIDGE_API_BASE_URL="+apiURL,
	)
}

// TestUnreachableBackendExitCode checks that a connection failure exits
// with the network status.
func TestUnreachableBackendExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("exit codes are checked on unix only")
	}
	bin := buildTestBinary(t)
	cmd := exec.Command(bin, "health")
	cmd.Env = isolatedEnv(t, "http://127.0.0.1:1")
	err := cmd.Run()

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "expected exit error, got %v", err)
	assert.Equal(t, 5, exitErr.ExitCode())
}

// TestGracefulInterrupt sends SIGINT while a request hangs and expects the
// binary to exit promptly.
func TestGracefulInterrupt(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("SIGINT cannot be delivered on windows")
	}
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	bin := buildTestBinary(t)
	cmd := exec.Command(bin, "health")
	cmd.Env = isolatedEnv(t, srv.URL)
	require.NoError(t, cmd.Start())

	time.Sleep(300 * time.Millisecond)
	require.NoError(t, cmd.Process.Signal(os.Interrupt))

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		_ = cmd.Process.Kill()
		t.Fatal("process did not exit within 3s after SIGINT")
	}
}
