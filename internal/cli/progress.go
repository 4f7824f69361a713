package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// progressReporter draws a one-line spinner on stderr while notebooks are
// analyzed. It is silent unless stderr is a terminal.
type progressReporter struct {
	mu      sync.Mutex
	out     io.Writer
	enabled bool
	label   string
	total   int
	done    int
	start   time.Time
	spinner int
	lastLen int
}

func newProgressReporter(out io.Writer, label string, total int, quiet bool) *progressReporter {
	enabled := false
	if f, ok := out.(*os.File); ok && !quiet {
		stat, err := f.Stat()
		enabled = err == nil && (stat.Mode()&os.ModeCharDevice) != 0
	}
	return &progressReporter{
		out:     out,
		enabled: enabled,
		label:   label,
		total:   total,
		start:   time.Now(),
	}
}

// Finished records one notebook. Safe for concurrent use.
func (r *progressReporter) Finished(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done++
	if !r.enabled {
		return
	}
	frames := [4]string{"-", "\\", "|", "/"}
	frame := frames[r.spinner%len(frames)]
	r.spinner++
	path = strings.TrimSpace(path)
	if len(path) > 88 {
		path = "..." + path[len(path)-85:]
	}
	r.printStatus(fmt.Sprintf("%s %s %d/%d %s", frame, r.label, r.done, r.total, path))
}

func (r *progressReporter) Done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return
	}
	elapsed := time.Since(r.start).Round(time.Millisecond)
	r.printStatus(fmt.Sprintf("%s complete (%d notebooks in %s)", r.label, r.done, elapsed))
	fmt.Fprintln(r.out)
}

func (r *progressReporter) printStatus(status string) {
	if r.lastLen > len(status) {
		status = status + strings.Repeat(" ", r.lastLen-len(status))
	}
	r.lastLen = len(status)
	fmt.Fprintf(r.out, "\r%s", status)
}
