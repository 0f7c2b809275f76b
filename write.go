package mp4tag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mportier/mp4tag/internal/mp4write"
)

// WriteTags replaces the file's entire tag collection with coll. It tries an
// in-place update first (reusing the existing ilst box plus any trailing
// free padding) and falls back to a full rewrite-then-rename when there is
// not enough room, unless ForceRewrite is given. The cached Collection is
// invalidated before the write begins, per spec §4.E's cache invariant.
func (c *Context) WriteTags(coll *Collection, opts ...WriteOption) error {
	if c.f == nil {
		return ErrNotOpen
	}
	if c.readOnly {
		return ErrReadOnly
	}

	o := defaultWriteOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.backupSuffix != "" {
		if err := copyFile(c.path, c.path+o.backupSuffix); err != nil {
			return err
		}
	}

	c.cached = nil

	// mp4write opens the path itself (and, on Strategy 2, renames over it),
	// so the Context must release its own handle first.
	if err := c.f.Close(); err != nil {
		c.f = nil
		return fmt.Errorf("%w: %v", ErrIo, err)
	}
	c.f = nil

	newFm, err := mp4write.Write(c.path, c.fm, c.size, coll, o.forceRewrite)
	if reopenErr := c.reopen(); reopenErr != nil {
		if err == nil {
			err = reopenErr
		}
	}
	if err != nil {
		return err
	}
	c.fm = newFm

	if o.validate {
		if _, err := c.ReadTags(); err != nil {
			return err
		}
	}
	return nil
}

// SetTagString reads the current collection, clones every tag except any
// SimpleTag named name (case-insensitively), appends a new SimpleTag with
// the given value to the album tag, and writes the result back — the
// read-clone-append-write shape spec §9/§4.F describes.
func (c *Context) SetTagString(name, value string, opts ...WriteOption) error {
	if c.readOnly {
		return ErrReadOnly
	}
	base, err := c.cloneForMutation()
	if err != nil {
		return err
	}
	removeNamed(base, name)
	base.Album().AddSimple(name, value)
	return c.WriteTags(base, opts...)
}

// RemoveTag deletes every SimpleTag named name (case-insensitively) across
// the collection and writes the result back. Equivalent to
// SetTagString(name, "") followed by discarding the new empty value, per
// spec §4.F's "remove_tag(name) equals set_tag_string(name, NULL)".
func (c *Context) RemoveTag(name string, opts ...WriteOption) error {
	if c.readOnly {
		return ErrReadOnly
	}
	base, err := c.cloneForMutation()
	if err != nil {
		return err
	}
	removeNamed(base, name)
	return c.WriteTags(base, opts...)
}

// cloneForMutation returns a caller-owned clone of the current collection,
// or a fresh empty one if the file has no tags yet (ErrNoTags is not fatal
// here: SetTagString/RemoveTag on an untagged file simply starts from
// nothing).
func (c *Context) cloneForMutation() (*Collection, error) {
	existing, err := c.ReadTags()
	if err != nil {
		if err == ErrNoTags {
			return NewCollection(), nil
		}
		return nil, err
	}
	return existing.Clone(), nil
}

func removeNamed(coll *Collection, name string) {
	for _, tag := range coll.Tags {
		kept := tag.Simple[:0]
		for _, st := range tag.Simple {
			if !strings.EqualFold(st.Name, name) {
				kept = append(kept, st)
			}
		}
		tag.Simple = kept
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIo, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIo, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("%w: %v", ErrIo, err)
	}
	return out.Sync()
}
