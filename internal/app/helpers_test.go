package app

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// setupAppTest writes the given files into a temporary pipeline directory and
// creates an App for it with debug logging.
func setupAppTest(t *testing.T, cfg Config, files map[string]string) (*App, *SafeBuffer) {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	cfg.PipelinePaths = []string{dir}
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"

	appCfg, err := NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}
	testApp, err := NewApp(logBuffer, appCfg, NewLoader())
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("TRIGGERGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return testApp, logBuffer
}

// twoTrackHCL declares two tracks: Compile -> Test, and a separate Lint.
// Scenario B fails when the params say so.
const twoTrackHCL = `
params = {
  "b.fail" = "false"
}

scenario "A" {}

scenario "B" {
  config = { "dryrun.fail" = "%b.fail%" }
}

scenario "C" {}

trigger "Compile" {
  scenarios = ["A", "B"]
}

trigger "Test" {
  scenarios   = ["C"]
  predecessor = "Compile"
}

trigger "Lint" {
  scenarios = ["C"]
}
`
