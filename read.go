package mp4tag

import (
	"strings"

	mp4binary "github.com/mportier/mp4tag/internal/binary"
	"github.com/mportier/mp4tag/internal/itemcodec"
	"github.com/mportier/mp4tag/internal/mp4box"
)

// ReadTags parses (or returns the cached) Collection for the open file. The
// returned Collection is owned by the Context: it is invalidated by the next
// call to Close, WriteTags, SetTagString, or RemoveTag, and must not be
// retained across such a call.
func (c *Context) ReadTags() (*Collection, error) {
	if c.f == nil {
		return nil, ErrNotOpen
	}
	if c.cached != nil {
		return c.cached, nil
	}
	if !c.fm.HasIlst {
		return nil, ErrNoTags
	}

	ilstBox := mp4box.Box{
		Type:       mp4box.StrToFourCC("ilst"),
		Offset:     c.fm.Ilst.Offset,
		HeaderSize: mp4box.HeaderSizeStandard,
		TotalSize:  c.fm.Ilst.Size,
	}
	sr := mp4binary.NewSafeReader(c.f, c.size, c.path)
	coll, err := itemcodec.DecodeIlst(sr, ilstBox, c.size)
	if err != nil {
		return nil, err
	}
	c.cached = coll
	return coll, nil
}

// ReadTagString looks up name (case-insensitively against the canonical
// names in the item table, or a raw 4-character FourCC) and copies its
// stringified value into buf, returning the number of bytes written.
// Returns ErrTagNotFound if absent, ErrTagTooLarge if buf is too small.
func (c *Context) ReadTagString(name string, buf []byte) (int, error) {
	coll, err := c.ReadTags()
	if err != nil {
		return 0, err
	}
	st := findSimpleCaseInsensitive(coll, name)
	if st == nil {
		return 0, ErrTagNotFound
	}
	if len(st.Value) > len(buf) {
		return 0, ErrTagTooLarge
	}
	return copy(buf, st.Value), nil
}

func findSimpleCaseInsensitive(coll *Collection, name string) *SimpleTag {
	for _, tag := range coll.Tags {
		for _, st := range tag.Simple {
			if strings.EqualFold(st.Name, name) {
				return st
			}
		}
	}
	return nil
}
