package cli

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/alnah/go-voicetype/internal/config"
	"github.com/alnah/go-voicetype/internal/launch"
	"github.com/alnah/go-voicetype/internal/venv"
)

// ---------------------------------------------------------------------------
// callLog - ordered record of collaborator calls across mocks
// ---------------------------------------------------------------------------

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// ---------------------------------------------------------------------------
// Mock VenvResolver
// ---------------------------------------------------------------------------

// mockVenvResolver delegates to a real resolver over an in-memory filesystem
// unless ResolveFunc is set.
type mockVenvResolver struct {
	*venv.Resolver
	ResolveFunc func(dir string, mode venv.Mode) (*venv.Env, error)

	mu    sync.Mutex
	dirs  []string
	modes []venv.Mode
}

func (m *mockVenvResolver) Resolve(dir string, mode venv.Mode) (*venv.Env, error) {
	m.mu.Lock()
	m.dirs = append(m.dirs, dir)
	m.modes = append(m.modes, mode)
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(dir, mode)
	}
	return m.Resolver.Resolve(dir, mode)
}

func (m *mockVenvResolver) Dirs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.dirs...)
}

func (m *mockVenvResolver) Modes() []venv.Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]venv.Mode(nil), m.modes...)
}

// newMockVenvResolver returns a resolver whose filesystem holds a complete
// POSIX virtual environment at testVenvDir and the program at testScript.
func newMockVenvResolver() (*mockVenvResolver, afero.Fs) {
	fs := afero.NewMemMapFs()
	for _, p := range []string{
		testVenvDir + "/bin/activate",
		testVenvDir + "/bin/python",
		testVenvDir + "/pyvenv.cfg",
		testScript,
	} {
		content := ""
		if p == testVenvDir+"/pyvenv.cfg" {
			content = "home = /usr/bin\nversion_info = 3.12.1\n"
		}
		_ = afero.WriteFile(fs, p, []byte(content), 0o755)
	}
	r := venv.NewResolver(venv.WithFs(fs), venv.WithPlatform("linux"))
	return &mockVenvResolver{Resolver: r}, fs
}

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)

	mu        sync.Mutex
	loadCalls int
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

func (m *mockConfigLoader) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// ---------------------------------------------------------------------------
// Mock LauncherFactory + Launcher
// ---------------------------------------------------------------------------

type mockLauncherFactory struct {
	mockLauncher *mockLauncher

	mu       sync.Mutex
	newCalls int
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
}

func (f *mockLauncherFactory) NewLauncher(stdin io.Reader, stdout, stderr io.Writer, log logrus.FieldLogger) Launcher {
	f.mu.Lock()
	f.newCalls++
	f.stdin, f.stdout, f.stderr = stdin, stdout, stderr
	f.mu.Unlock()

	if f.mockLauncher == nil {
		f.mockLauncher = &mockLauncher{}
	}
	f.mockLauncher.log = log
	return f.mockLauncher
}

func (f *mockLauncherFactory) NewCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newCalls
}

type mockLauncher struct {
	RunFunc   func(ctx context.Context, spec launch.Spec) (int, error)
	StartFunc func(ctx context.Context, spec launch.Spec) (int, error)

	calls *callLog
	log   logrus.FieldLogger

	mu         sync.Mutex
	runSpecs   []launch.Spec
	startSpecs []launch.Spec
}

func (m *mockLauncher) Run(ctx context.Context, spec launch.Spec) (int, error) {
	m.mu.Lock()
	m.runSpecs = append(m.runSpecs, spec)
	m.mu.Unlock()
	m.calls.add("run")

	if m.RunFunc != nil {
		return m.RunFunc(ctx, spec)
	}
	return 0, nil
}

func (m *mockLauncher) Start(ctx context.Context, spec launch.Spec) (int, error) {
	m.mu.Lock()
	m.startSpecs = append(m.startSpecs, spec)
	m.mu.Unlock()
	m.calls.add("start")

	if m.StartFunc != nil {
		return m.StartFunc(ctx, spec)
	}
	return 4242, nil
}

func (m *mockLauncher) RunSpecs() []launch.Spec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]launch.Spec(nil), m.runSpecs...)
}

func (m *mockLauncher) StartSpecs() []launch.Spec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]launch.Spec(nil), m.startSpecs...)
}

// ---------------------------------------------------------------------------
// Mock Pauser
// ---------------------------------------------------------------------------

type mockPauser struct {
	WaitFunc func(prompt string) error

	calls *callLog

	mu      sync.Mutex
	prompts []string
}

func (m *mockPauser) Wait(prompt string) error {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	m.calls.add("pause")

	if m.WaitFunc != nil {
		return m.WaitFunc(prompt)
	}
	return nil
}

func (m *mockPauser) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// ---------------------------------------------------------------------------
// Mock ShieldFactory + Shield
// ---------------------------------------------------------------------------

type mockShieldFactory struct {
	// aborted is reported by every shield the factory creates.
	aborted bool

	mu      sync.Mutex
	shields []*mockShield
}

func (f *mockShieldFactory) NewShield(ctx context.Context) (Shield, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s := &mockShield{aborted: f.aborted, cancel: cancel}

	f.mu.Lock()
	f.shields = append(f.shields, s)
	f.mu.Unlock()

	return s, ctx
}

func (f *mockShieldFactory) Shields() []*mockShield {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*mockShield(nil), f.shields...)
}

type mockShield struct {
	aborted bool
	cancel  context.CancelFunc

	mu      sync.Mutex
	stopped int
}

func (s *mockShield) Aborted() bool { return s.aborted }

func (s *mockShield) Stop() {
	s.mu.Lock()
	s.stopped++
	s.mu.Unlock()
	s.cancel()
}

func (s *mockShield) Stopped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// ---------------------------------------------------------------------------
// Log file capture
// ---------------------------------------------------------------------------

// logCapture stands in for the silent launcher's log file.
type logCapture struct {
	syncBuffer

	mu     sync.Mutex
	closed bool
	debug  bool
}

func (c *logCapture) open(debug bool) (logrus.FieldLogger, io.Closer) {
	c.mu.Lock()
	c.debug = debug
	c.mu.Unlock()

	l := logrus.New()
	l.SetOutput(&c.syncBuffer)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	l.SetLevel(logrus.DebugLevel)
	return l, c
}

func (c *logCapture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *logCapture) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Compile-time checks.
var (
	_ VenvResolver    = (*mockVenvResolver)(nil)
	_ ConfigLoader    = (*mockConfigLoader)(nil)
	_ Launcher        = (*mockLauncher)(nil)
	_ LauncherFactory = (*mockLauncherFactory)(nil)
	_ Pauser          = (*mockPauser)(nil)
	_ ShieldFactory   = (*mockShieldFactory)(nil)
)
