package app

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/vk/whenever-systemd/internal/hcl"
	"github.com/vk/whenever-systemd/internal/testutil"
)

// RecordingRunner is a ScriptRunner that records what it was asked to run
// and returns Err.
type RecordingRunner struct {
	mu    sync.Mutex
	Err   error
	calls [][]string
}

// RunScript implements ScriptRunner.
func (r *RecordingRunner) RunScript(_ context.Context, argv []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string(nil), argv...))
	return r.Err
}

// Calls returns the recorded commands.
func (r *RecordingRunner) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

// SetupAppTest creates a new app instance for system testing. Output and
// logs are captured in the returned buffers and scripts go to runner.
func SetupAppTest(t *testing.T, cfg Config, runner ScriptRunner) (*App, *testutil.SafeBuffer, *testutil.SafeBuffer) {
	t.Helper()

	if cfg.TempPath == "" {
		cfg.TempPath = t.TempDir()
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = t.TempDir()
	}
	cfg.LogLevel = "debug"
	appConfig, err := NewConfig(cfg)
	if err != nil {
		t.Fatalf("invalid test configuration: %v", err)
	}

	out := &testutil.SafeBuffer{}
	logs := &testutil.SafeBuffer{}
	testApp := NewApp(out, appConfig, hcl.NewLoader(), WithLogWriter(logs), WithScriptRunner(runner))

	t.Cleanup(func() {
		if os.Getenv("WHENEVER_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	return testApp, out, logs
}
