package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Console writes human-readable pipeline progress. Stage banners and
// per-entity results go to a single writer (stdout by default) so structured
// diagnostics on stderr stay separate.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

var (
	stepColor    = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	noopColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed, color.Bold)
)

// Stepf announces a pipeline stage.
func (c *Console) Stepf(format string, args ...any) {
	c.printf(stepColor, "==> "+format, args...)
}

// Infof reports plain progress within a stage.
func (c *Console) Infof(format string, args ...any) {
	c.printf(nil, "    "+format, args...)
}

// Successf reports a completed mutation (commit, push, PR).
func (c *Console) Successf(format string, args ...any) {
	c.printf(successColor, "    "+format, args...)
}

// Noopf reports a deliberate short-circuit (nothing changed).
func (c *Console) Noopf(format string, args ...any) {
	c.printf(noopColor, "    "+format, args...)
}

// Failf reports a fatal stage failure.
func (c *Console) Failf(format string, args ...any) {
	c.printf(failColor, "    "+format, args...)
}

func (c *Console) printf(col *color.Color, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	line := fmt.Sprintf(format, args...)
	if col != nil {
		_, _ = col.Fprintln(c.w, line)
		return
	}
	_, _ = fmt.Fprintln(c.w, line)
}
