// Package tagmodel holds the in-memory representation of parsed or
// user-built metadata: SimpleTag, Tag, and Collection. Children are owned
// slices rather than linked lists, but iteration order always matches
// insertion order, preserving the ordering contract of the original
// pointer-chained design.
package tagmodel

// TargetType classifies what a Tag describes. MP4 files only ever use
// TargetAlbum, but the full ordered enumeration is kept so the model can
// describe the same hierarchy other container formats use.
type TargetType int

const (
	TargetShot       TargetType = 10
	TargetSubtrack   TargetType = 20
	TargetTrack      TargetType = 30
	TargetPart       TargetType = 40
	TargetAlbum      TargetType = 50
	TargetEdition    TargetType = 60
	TargetCollection TargetType = 70
)

// SimpleTag is a name/value pair. Exactly one of Value and Binary is
// meaningful for a given tag; for integer-valued atoms Value holds the
// stringified form ("3/12", "128", "1").
type SimpleTag struct {
	Name      string
	Value     string
	Binary    []byte
	Language  string
	IsDefault bool
	Nested    []*SimpleTag
}

// AddNested appends a child SimpleTag, preserving insertion order.
func (s *SimpleTag) AddNested(name, value string) *SimpleTag {
	child := &SimpleTag{Name: name, Value: value}
	s.Nested = append(s.Nested, child)
	return child
}

// SetLanguage sets the tag's language code and returns the receiver for chaining.
func (s *SimpleTag) SetLanguage(lang string) *SimpleTag {
	s.Language = lang
	return s
}

// Tag groups SimpleTags under a target classification, with optional UID
// lists for track/edition/chapter/attachment references.
type Tag struct {
	Target        TargetType
	TrackUIDs     []uint64
	EditionUIDs   []uint64
	ChapterUIDs   []uint64
	AttachmentUIDs []uint64
	Simple        []*SimpleTag
}

// AddSimple appends a SimpleTag to this Tag and returns it for chaining
// (SetLanguage, AddNested).
func (t *Tag) AddSimple(name, value string) *SimpleTag {
	st := &SimpleTag{Name: name, Value: value}
	t.Simple = append(t.Simple, st)
	return st
}

// AddTrackUID appends a track UID reference.
func (t *Tag) AddTrackUID(uid uint64) {
	t.TrackUIDs = append(t.TrackUIDs, uid)
}

// Find returns the first top-level SimpleTag with the given name
// (case-sensitive; callers needing case-insensitive lookup should normalize
// first, which itemcodec does via the name<->FourCC table).
func (t *Tag) Find(name string) *SimpleTag {
	for _, st := range t.Simple {
		if st.Name == name {
			return st
		}
	}
	return nil
}

// Collection is an ordered list of Tags. A collection produced by parsing a
// file is owned by the facade's Context and invalidated on any mutating
// operation or Close; a collection built via New is owned by the caller.
type Collection struct {
	Tags []*Tag
}

// New returns an empty, caller-owned Collection.
func New() *Collection {
	return &Collection{}
}

// AddTag appends a new Tag with the given target type and returns it.
func (c *Collection) AddTag(target TargetType) *Tag {
	t := &Tag{Target: target}
	c.Tags = append(c.Tags, t)
	return t
}

// Count returns the number of Tags in the collection.
func (c *Collection) Count() int {
	return len(c.Tags)
}

// Album returns the first Tag with TargetAlbum, the target MP4 always uses,
// creating one if none exists yet.
func (c *Collection) Album() *Tag {
	for _, t := range c.Tags {
		if t.Target == TargetAlbum {
			return t
		}
	}
	return c.AddTag(TargetAlbum)
}

// Clone returns a deep copy of the collection, used by SetTagString's
// read-clone-append-write update path so the original cached collection is
// never mutated in place.
func (c *Collection) Clone() *Collection {
	out := &Collection{Tags: make([]*Tag, len(c.Tags))}
	for i, t := range c.Tags {
		out.Tags[i] = t.clone()
	}
	return out
}

func (t *Tag) clone() *Tag {
	out := &Tag{
		Target:         t.Target,
		TrackUIDs:      append([]uint64(nil), t.TrackUIDs...),
		EditionUIDs:    append([]uint64(nil), t.EditionUIDs...),
		ChapterUIDs:    append([]uint64(nil), t.ChapterUIDs...),
		AttachmentUIDs: append([]uint64(nil), t.AttachmentUIDs...),
		Simple:         make([]*SimpleTag, len(t.Simple)),
	}
	for i, st := range t.Simple {
		out.Simple[i] = st.clone()
	}
	return out
}

func (s *SimpleTag) clone() *SimpleTag {
	out := &SimpleTag{
		Name:      s.Name,
		Value:     s.Value,
		Language:  s.Language,
		IsDefault: s.IsDefault,
		Nested:    make([]*SimpleTag, len(s.Nested)),
	}
	if s.Binary != nil {
		out.Binary = append([]byte(nil), s.Binary...)
	}
	for i, n := range s.Nested {
		out.Nested[i] = n.clone()
	}
	return out
}
