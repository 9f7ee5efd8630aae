package interrupt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ExitInterrupt is the exit code for interrupt (130 = 128 + SIGINT).
const ExitInterrupt = 130

// interruptWindow is the time window for a second Ctrl+C to trigger abort.
const interruptWindow = 2 * time.Second

// hintMessage is displayed after the first Ctrl+C.
const hintMessage = "\nInterrupt sent to the program. Press Ctrl+C again within 2s to force it to stop."

// abortMessage is displayed when the user aborts via double Ctrl+C.
const abortMessage = "\nStopping the program."

// Handler shields the launcher from Ctrl+C while it waits on a child.
// The console delivers Ctrl+C to the child as well, so the first one is
// only recorded and the launcher keeps waiting. A second Ctrl+C within
// the window cancels the handler's context, which kills the child.
// Either way the launcher survives to run its own exit steps.
type Handler struct {
	mu             sync.Mutex
	firstInterrupt time.Time
	interrupted    bool
	aborted        bool
	stopped        bool
	cancelFunc     context.CancelFunc
	done           chan struct{} // Signals listen goroutine to exit

	// Injected dependencies (for testing)
	nowFunc func() time.Time
	stderr  io.Writer
}

// Options holds injectable dependencies for testing.
type Options struct {
	SigCh   <-chan os.Signal
	NowFunc func() time.Time
	// Stderr is the writer for user-facing messages.
	// Must be safe for concurrent writes from multiple goroutines.
	// Defaults to os.Stderr which is safe at the OS level.
	Stderr io.Writer
}

// NewHandler creates a handler that listens for SIGINT/SIGTERM.
// Returns the handler and a context that is canceled on abort.
func NewHandler(parent context.Context) (*Handler, context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return newHandler(parent, Options{SigCh: sigCh})
}

// NewHandlerWithOptions creates a handler with injectable dependencies.
// Used by tests to inject mock signal channels and clocks.
func NewHandlerWithOptions(parent context.Context, opts Options) (*Handler, context.Context) {
	return newHandler(parent, opts)
}

// newHandler creates a handler with injectable dependencies.
func newHandler(parent context.Context, opts Options) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	nowFunc := opts.NowFunc
	if nowFunc == nil {
		nowFunc = time.Now
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	h := &Handler{
		cancelFunc: cancel,
		done:       make(chan struct{}),
		nowFunc:    nowFunc,
		stderr:     stderr,
	}

	if opts.SigCh != nil {
		go h.listen(opts.SigCh)
	}

	return h, ctx
}

// listen handles incoming signals.
func (h *Handler) listen(sigCh <-chan os.Signal) {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-sigCh:
			if !ok {
				return
			}

			h.mu.Lock()
			if h.stopped || h.aborted {
				h.mu.Unlock()
				continue
			}
			now := h.nowFunc()

			if !h.interrupted || now.Sub(h.firstInterrupt) > interruptWindow {
				// First interrupt, or a new one after the window closed.
				h.interrupted = true
				h.firstInterrupt = now
				h.mu.Unlock()
				fmt.Fprintln(h.stderr, hintMessage)
				continue
			}

			h.aborted = true
			h.mu.Unlock()
			fmt.Fprintln(h.stderr, abortMessage)
			h.cancelFunc()
		}
	}
}

// WasInterrupted returns true if at least one interrupt was received.
func (h *Handler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

// Aborted returns true if a double Ctrl+C canceled the context.
func (h *Handler) Aborted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.aborted
}

// Stop cleans up the handler and restores default signal handling.
// The context is canceled to release its resources.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	signal.Reset(syscall.SIGINT, syscall.SIGTERM)
	close(h.done)
	h.cancelFunc()
}
