package dataset

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// progressTracker manages the .tried-empty and .last-completed marker files
// that make builds crash-safe and idempotent within a day. Symbols that
// returned no data are appended to .tried-empty so a resumed run skips them;
// .last-completed holds the end date of the last finished build.
type progressTracker struct {
	mu         sync.Mutex
	triedEmpty map[string]struct{}
	writer     *bufio.Writer
	file       *os.File
	dir        string
}

// newProgressTracker creates a tracker rooted at dir and loads any existing
// .tried-empty entries.
func newProgressTracker(dir string) (*progressTracker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating progress dir: %w", err)
	}

	pt := &progressTracker{
		triedEmpty: make(map[string]struct{}),
		dir:        dir,
	}

	path := filepath.Join(dir, ".tried-empty")
	data, err := os.ReadFile(path)
	if err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			sym := strings.TrimSpace(line)
			if sym != "" {
				pt.triedEmpty[sym] = struct{}{}
			}
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening .tried-empty: %w", err)
	}
	pt.file = f
	pt.writer = bufio.NewWriter(f)

	return pt, nil
}

// IsTriedEmpty returns true if the symbol already returned no data.
func (p *progressTracker) IsTriedEmpty(symbol string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.triedEmpty[symbol]
	return ok
}

// MarkEmpty records a batch of symbols as tried-empty.
func (p *progressTracker) MarkEmpty(symbols []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, sym := range symbols {
		if _, ok := p.triedEmpty[sym]; ok {
			continue
		}
		p.triedEmpty[sym] = struct{}{}
		if _, err := p.writer.WriteString(sym + "\n"); err != nil {
			return fmt.Errorf("writing to .tried-empty: %w", err)
		}
	}
	return p.writer.Flush()
}

// MarkCompleted writes the given date to .last-completed.
func (p *progressTracker) MarkCompleted(date string) error {
	return os.WriteFile(filepath.Join(p.dir, ".last-completed"), []byte(date), 0o644)
}

// IsCompleted returns true if .last-completed matches the given date.
func (p *progressTracker) IsCompleted(date string) bool {
	return p.LastCompleted() == date
}

// LastCompleted returns the date from .last-completed, or empty string.
func (p *progressTracker) LastCompleted() string {
	data, err := os.ReadFile(filepath.Join(p.dir, ".last-completed"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Reset deletes the .tried-empty file and clears the in-memory set.
func (p *progressTracker) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file != nil {
		p.file.Close()
	}
	p.triedEmpty = make(map[string]struct{})

	path := filepath.Join(p.dir, ".tried-empty")
	os.Remove(path)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("reopening .tried-empty: %w", err)
	}
	p.file = f
	p.writer = bufio.NewWriter(f)
	return nil
}

// Close flushes and closes the .tried-empty file.
func (p *progressTracker) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writer != nil {
		p.writer.Flush()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}
