package cli

import (
	"bytes"
	"io"
	"runtime"
	"strings"
	"sync"
	"testing"
)

const (
	testBaseDir = "/app"
	testVenvDir = "/app/.venv"
	testScript  = "/app/gui_voice_typing.py"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	calls        *callLog
	venvResolver *mockVenvResolver
	configLoader *mockConfigLoader
	launcher     *mockLauncherFactory
	pauser       *mockPauser
	shield       *mockShieldFactory
	logFile      *logCapture
	stdout       *syncBuffer
	stderr       *syncBuffer
}

func newTestMocks() *testMocks {
	calls := &callLog{}
	resolver, _ := newMockVenvResolver()
	return &testMocks{
		calls:        calls,
		venvResolver: resolver,
		configLoader: &mockConfigLoader{},
		launcher:     &mockLauncherFactory{mockLauncher: &mockLauncher{calls: calls}},
		pauser:       &mockPauser{calls: calls},
		shield:       &mockShieldFactory{},
		logFile:      &logCapture{},
		stdout:       &syncBuffer{},
		stderr:       &syncBuffer{},
	}
}

// ---------------------------------------------------------------------------
// testEnv - creates a fully mocked Env for testing
// ---------------------------------------------------------------------------

// testEnvOptions configures a test environment.
type testEnvOptions struct {
	getenv  func(string) string
	environ []string
	mocks   *testMocks
}

// testEnvOption configures testEnv.
type testEnvOption func(*testEnvOptions)

func withTestGetenv(vars map[string]string) testEnvOption {
	return func(o *testEnvOptions) { o.getenv = staticEnv(vars) }
}

func withTestEnviron(environ ...string) testEnvOption {
	return func(o *testEnvOptions) { o.environ = environ }
}

// testEnv creates a test Env with all dependencies mocked.
// Returns the Env and the mocks for assertions.
func testEnv(t *testing.T, opts ...testEnvOption) (*Env, *testMocks) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test fixtures use POSIX paths")
	}

	options := &testEnvOptions{
		getenv:  staticEnv(nil),
		environ: []string{"PATH=/usr/bin", "HOME=/home/user"},
		mocks:   newTestMocks(),
	}
	for _, opt := range opts {
		opt(options)
	}

	m := options.mocks
	env := NewEnv(
		WithStdin(strings.NewReader("")),
		WithStdout(m.stdout),
		WithStderr(m.stderr),
		WithGetenv(options.getenv),
		WithEnviron(func() []string { return append([]string(nil), options.environ...) }),
		WithExecutableDir(func() string { return testBaseDir }),
		WithVenvResolver(m.venvResolver),
		WithConfigLoader(m.configLoader),
		WithLauncherFactory(m.launcher),
		WithPauser(m.pauser),
		WithShieldFactory(m.shield),
		WithLogFile(m.logFile.open),
	)
	return env, m
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// envValue returns the value of key in an environ slice.
func envValue(environ []string, key string) (string, bool) {
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return v, true
		}
	}
	return "", false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
