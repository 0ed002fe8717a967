// Package spinner provides terminal feedback for report generation.
// On a TTY it animates; piped output falls back to plain status lines.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// ANSI escape sequences for terminal control.
const (
	hideCursor     = "\033[?25l"
	showCursor     = "\033[?25h"
	carriageReturn = "\r"

	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorReset = "\033[0m"

	symbolSuccess = "✓"
	symbolFailure = "✗"
)

// frames is the animation cycle. Braille renders smoothly on modern
// terminals; non-TTY output never sees it.
var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const refreshRate = 80 * time.Millisecond

// Config holds spinner options.
type Config struct {
	// Message is the text displayed next to the spinner.
	Message string

	// Writer is the output destination. Defaults to os.Stderr.
	Writer io.Writer

	// IsTTY forces terminal or plain mode. When nil it is detected
	// from the Writer.
	IsTTY *bool
}

// Spinner shows progress for a single long-running operation.
type Spinner struct {
	mu sync.Mutex

	config    Config
	active    bool
	startTime time.Time
	frame     int
	isTTY     bool
	stopCh    chan struct{}
	doneCh    chan struct{}

	// lastWidth is the length of the last rendered line, for clearing.
	lastWidth int
}

// New creates a spinner writing to stderr.
func New(message string) *Spinner {
	return NewWithConfig(Config{Message: message})
}

// NewWithConfig creates a spinner with explicit options.
func NewWithConfig(config Config) *Spinner {
	if config.Writer == nil {
		config.Writer = os.Stderr
	}

	isTTY := isTerminalWriter(config.Writer)
	if config.IsTTY != nil {
		isTTY = *config.IsTTY
	}

	return &Spinner{config: config, isTTY: isTTY}
}

func isTerminalWriter(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// IsTTY reports whether output goes to a terminal.
func (s *Spinner) IsTTY() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isTTY
}

// IsActive reports whether the spinner is running.
func (s *Spinner) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Update changes the message while the spinner runs.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Message = message
}

// Start begins the animation. Double starts are no-ops. In plain mode
// it prints the message once and returns.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return
	}

	s.active = true
	s.startTime = time.Now()
	s.frame = 0
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	if !s.isTTY {
		fmt.Fprintf(s.config.Writer, "%s...\n", s.config.Message)
		return
	}

	fmt.Fprint(s.config.Writer, hideCursor)
	go s.spin()
}

// Stop halts the animation without a status line. Safe to call when
// already stopped.
func (s *Spinner) Stop() {
	s.finish("", "", "")
}

// Success stops the spinner with a green check. An empty message reuses
// the spinner message.
func (s *Spinner) Success(message string) {
	s.finish(message, symbolSuccess, colorGreen)
}

// Fail stops the spinner with a red cross. An empty message reuses the
// spinner message.
func (s *Spinner) Fail(message string) {
	s.finish(message, symbolFailure, colorRed)
}

func (s *Spinner) spin() {
	ticker := time.NewTicker(refreshRate)
	defer ticker.Stop()

	s.render()
	for {
		select {
		case <-s.stopCh:
			close(s.doneCh)
			return
		case <-ticker.C:
			s.render()
		}
	}
}

func (s *Spinner) render() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}

	char := frames[s.frame%len(frames)]
	s.frame++

	line := fmt.Sprintf("%s %s %s", char, s.config.Message, formatElapsed(time.Since(s.startTime)))
	s.clearLine()
	fmt.Fprint(s.config.Writer, line)
	s.lastWidth = len(line)
}

// clearLine overwrites the previous render with spaces. Caller must
// hold the mutex.
func (s *Spinner) clearLine() {
	if s.lastWidth > 0 {
		fmt.Fprint(s.config.Writer, carriageReturn+strings.Repeat(" ", s.lastWidth)+carriageReturn)
		s.lastWidth = 0
	}
}

// finish stops the animation and optionally prints a final status line.
// An empty symbol means stop silently.
func (s *Spinner) finish(message, symbol, color string) {
	s.mu.Lock()

	if message == "" {
		message = s.config.Message
	}
	wasActive := s.active
	elapsed := time.Since(s.startTime)
	s.active = false

	if !s.isTTY {
		s.mu.Unlock()
		if symbol != "" {
			fmt.Fprintf(s.config.Writer, "%s %s %s\n", symbol, message, formatElapsed(elapsed))
		}
		return
	}

	if !wasActive {
		s.mu.Unlock()
		if symbol != "" {
			fmt.Fprintf(s.config.Writer, "%s%s%s %s\n", color, symbol, colorReset, message)
		}
		return
	}

	stopCh := s.stopCh
	doneCh := s.doneCh
	s.mu.Unlock()

	close(stopCh)
	<-doneCh

	s.mu.Lock()
	s.clearLine()
	fmt.Fprint(s.config.Writer, showCursor)
	if symbol != "" {
		fmt.Fprintf(s.config.Writer, "%s%s%s %s %s\n", color, symbol, colorReset, message, formatElapsed(elapsed))
	}
	s.mu.Unlock()
}

// formatElapsed renders durations as "(1.2s)" or "(1m 30s)".
func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("(%.1fs)", d.Seconds())
	}
	return fmt.Sprintf("(%dm %ds)", int(d.Minutes()), int(d.Seconds())%60)
}
