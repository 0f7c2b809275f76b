package mp4tag

import (
	"fmt"
	"os"

	mp4binary "github.com/mportier/mp4tag/internal/binary"
	"github.com/mportier/mp4tag/internal/mp4tree"
)

// Context owns at most one open file handle, one cached parsed Collection,
// and the path it was opened with. All three are released on Close.
type Context struct {
	path     string
	f        *os.File
	readOnly bool
	size     int64
	fm       *mp4tree.FileMap
	cached   *Collection
}

// Open opens path read-only and maps its box tree. The returned Context's
// mutating methods (WriteTags, SetTagString, RemoveTag) return ErrReadOnly.
func Open(path string) (*Context, error) {
	return open(path, true)
}

// OpenRW opens path read-write and maps its box tree.
func OpenRW(path string) (*Context, error) {
	return open(path, false)
}

func open(path string, readOnly bool) (*Context, error) {
	c := &Context{path: path, readOnly: readOnly}
	if err := c.reopen(); err != nil {
		return nil, err
	}
	fm, err := mp4tree.Parse(mp4binary.NewSafeReader(c.f, c.size, path), c.size, path)
	if err != nil {
		c.f.Close()
		return nil, err
	}
	c.fm = fm
	return c, nil
}

// reopen (re)acquires the file handle and refreshes the cached size. It
// leaves fm untouched so callers can decide whether a re-parse is needed.
func (c *Context) reopen() error {
	flag := os.O_RDONLY
	if !c.readOnly {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(c.path, flag, 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIo, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("%w: %v", ErrIo, err)
	}
	c.f = f
	c.size = info.Size()
	return nil
}

// IsOpen reports whether the Context currently owns an open file handle.
func (c *Context) IsOpen() bool {
	return c.f != nil
}

// Close releases the file handle and invalidates the cached Collection. It
// is idempotent and safe to call on a Context whose Open call failed
// mid-sequence (the zero value and any partially built Context both close
// cleanly, and so does a nil *Context).
func (c *Context) Close() error {
	if c == nil || c.f == nil {
		return nil
	}
	err := c.f.Close()
	c.f = nil
	c.fm = nil
	c.cached = nil
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIo, err)
	}
	return nil
}
