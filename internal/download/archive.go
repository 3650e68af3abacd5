package download

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Archive is an append-only record of completed download URLs. Repeat runs
// consult it to skip entries that already exist on disk.
type Archive struct {
	mu   sync.Mutex
	path string
	seen map[string]struct{}
}

// OpenArchive loads an archive file, creating parent directories as needed.
// A missing file is an empty archive, not an error.
func OpenArchive(path string) (*Archive, error) {
	a := &Archive{
		path: path,
		seen: make(map[string]struct{}),
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return a, nil
		}
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			a.seen[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	return a, nil
}

// Contains reports whether the URL was recorded by a previous run.
func (a *Archive) Contains(url string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.seen[url]
	return ok
}

// Add appends the URL to the archive file and the in-memory set. Adding an
// already-recorded URL is a no-op.
func (a *Archive) Add(url string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.seen[url]; ok {
		return nil
	}

	if dir := filepath.Dir(a.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open archive for append: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, url); err != nil {
		return fmt.Errorf("failed to append to archive: %w", err)
	}

	a.seen[url] = struct{}{}
	return nil
}

// Len returns the number of recorded URLs.
func (a *Archive) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.seen)
}
