package staging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Dir is the local staging directory uploaded parts are written to before
// they are pushed to the object store. The directory is created on first use.
type Dir struct {
	path string
	now  func() time.Time

	mu   sync.Mutex
	last int64
}

// NewDir returns a staging Dir rooted at path.
func NewDir(path string) *Dir {
	return &Dir{path: path, now: time.Now}
}

// Path returns the directory path.
func (d *Dir) Path() string { return d.path }

// Create opens a new file named "{field}-{unixMillis}{ext}". The timestamp is
// bumped when another file in this process already took it.
func (d *Dir) Create(field, originalName string) (*os.File, error) {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return nil, fmt.Errorf("staging: mkdir: %w", err)
	}
	name := clean(field)
	ext := clean(filepath.Ext(originalName))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	for attempt := 0; attempt < 100; attempt++ {
		p := filepath.Join(d.path, name+"-"+strconv.FormatInt(d.stamp(), 10)+ext)
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("staging: create: %w", err)
		}
	}
	return nil, fmt.Errorf("staging: no free name for field %q", field)
}

// Check reports whether new files can be created in the directory.
func (d *Dir) Check(context.Context) error {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("staging: mkdir: %w", err)
	}
	f, err := os.CreateTemp(d.path, ".check-*")
	if err != nil {
		return fmt.Errorf("staging: not writable: %w", err)
	}
	f.Close()
	return os.Remove(f.Name())
}

// stamp returns a millisecond timestamp strictly greater than the last one issued.
func (d *Dir) stamp() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	ms := d.now().UnixMilli()
	if ms <= d.last {
		ms = d.last + 1
	}
	d.last = ms
	return ms
}

func clean(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_' || r == '-' || r == '.':
			return r
		}
		return -1
	}, s)
}
