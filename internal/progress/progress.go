// Package progress reports progress of counted batch operations, such as a
// bulk survey submission, to the terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Reporter tracks completion of a known number of items. Implementations
// are safe for concurrent use.
type Reporter interface {
	Start(total int, description string)
	Add(n int)
	Finish()
	Error(err error)
}

// New returns a bar on stderr when stderr is a terminal and quiet is false,
// and a no-op reporter otherwise.
func New(quiet bool) Reporter {
	if quiet || !term.IsTerminal(int(os.Stderr.Fd())) {
		return NewNoOpProgress()
	}
	return NewCLIProgress(os.Stderr)
}

// CLIProgress draws a progress bar.
type CLIProgress struct {
	mu  sync.Mutex
	out io.Writer
	bar *progressbar.ProgressBar
}

// NewCLIProgress creates a bar reporter writing to out.
func NewCLIProgress(out io.Writer) *CLIProgress {
	return &CLIProgress{out: out}
}

// Start initializes the progress bar with the item count and description.
func (p *CLIProgress) Start(total int, description string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.out
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(out, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Add advances the bar by n items.
func (p *CLIProgress) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Add(n)
	}
}

// Finish completes the progress bar.
func (p *CLIProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// Error prints err below the bar.
func (p *CLIProgress) Error(err error) {
	if err != nil {
		p.mu.Lock()
		defer p.mu.Unlock()
		fmt.Fprintf(p.out, "\nError: %v\n", err)
	}
}

// NoOpProgress is a progress reporter that does nothing (for piped output).
type NoOpProgress struct{}

// NewNoOpProgress creates a new no-op progress reporter.
func NewNoOpProgress() *NoOpProgress {
	return &NoOpProgress{}
}

// Start does nothing.
func (p *NoOpProgress) Start(total int, description string) {}

// Add does nothing.
func (p *NoOpProgress) Add(n int) {}

// Finish does nothing.
func (p *NoOpProgress) Finish() {}

// Error does nothing.
func (p *NoOpProgress) Error(err error) {}
