package loop

import (
	"fmt"
	"io"
	"sync"
)

// Console serializes line output from concurrent loops.
// Every line reaches the writer in a single Write call, so lines never interleave.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole wraps w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Println writes line followed by a newline. Write errors are dropped.
func (c *Console) Println(line string) {
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')

	c.mu.Lock()
	_, _ = c.w.Write(buf)
	c.mu.Unlock()
}

// Printf formats a line and writes it with Println.
func (c *Console) Printf(format string, args ...interface{}) {
	c.Println(fmt.Sprintf(format, args...))
}
