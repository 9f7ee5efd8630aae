// Package pause implements the "press any key" step that keeps a console
// window open until the user has read the output.
package pause

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// DefaultPrompt is shown before waiting for a key.
const DefaultPrompt = "Pressione qualquer tecla para sair..."

// terminal abstracts the raw-mode operations of golang.org/x/term.
type terminal interface {
	IsTerminal(fd int) bool
	MakeRaw(fd int) (*term.State, error)
	Restore(fd int, state *term.State) error
}

// fdReader is satisfied by *os.File.
type fdReader interface {
	io.Reader
	Fd() uintptr
}

// Pauser blocks until a single key is pressed.
type Pauser struct {
	in   io.Reader
	out  io.Writer
	term terminal
}

// Option configures a Pauser.
type Option func(*Pauser)

// WithInput sets the input stream.
func WithInput(r io.Reader) Option {
	return func(p *Pauser) { p.in = r }
}

// WithOutput sets the stream the prompt is written to.
func WithOutput(w io.Writer) Option {
	return func(p *Pauser) { p.out = w }
}

// withTerminal sets the terminal implementation (for testing).
func withTerminal(t terminal) Option {
	return func(p *Pauser) { p.term = t }
}

// New creates a Pauser reading os.Stdin and writing os.Stdout.
func New(opts ...Option) *Pauser {
	p := &Pauser{
		in:   os.Stdin,
		out:  os.Stdout,
		term: xterm{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Wait prints prompt and blocks until one key is pressed.
// On a terminal the input is switched to raw mode so any key counts
// without Enter. Otherwise one byte is read; end of input also returns.
func (p *Pauser) Wait(prompt string) error {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	fmt.Fprint(p.out, prompt)
	defer fmt.Fprintln(p.out)

	if f, ok := p.in.(fdReader); ok {
		fd := int(f.Fd())
		if p.term.IsTerminal(fd) {
			state, err := p.term.MakeRaw(fd)
			if err == nil {
				defer func() { _ = p.term.Restore(fd, state) }()
			}
		}
	}

	var buf [1]byte
	_, err := p.in.Read(buf[:])
	if err != nil && err != io.EOF {
		return fmt.Errorf("read key: %w", err)
	}
	return nil
}

// xterm implements terminal with golang.org/x/term.
type xterm struct{}

func (xterm) IsTerminal(fd int) bool                  { return term.IsTerminal(fd) }
func (xterm) MakeRaw(fd int) (*term.State, error)     { return term.MakeRaw(fd) }
func (xterm) Restore(fd int, state *term.State) error { return term.Restore(fd, state) }
