package mp4tag

import "github.com/mportier/mp4tag/internal/tagmodel"

// TargetType classifies what a Tag describes. MP4 files only ever use
// TargetAlbum; re-exported from internal/tagmodel.
type TargetType = tagmodel.TargetType

const (
	TargetShot       = tagmodel.TargetShot
	TargetSubtrack   = tagmodel.TargetSubtrack
	TargetTrack      = tagmodel.TargetTrack
	TargetPart       = tagmodel.TargetPart
	TargetAlbum      = tagmodel.TargetAlbum
	TargetEdition    = tagmodel.TargetEdition
	TargetCollection = tagmodel.TargetCollection
)

// SimpleTag is a name/value pair, re-exported from internal/tagmodel so the
// builder API (AddNested, SetLanguage) is usable directly off values this
// package returns.
type SimpleTag = tagmodel.SimpleTag

// Tag groups SimpleTags under a target classification.
type Tag = tagmodel.Tag

// Collection is an ordered list of Tags, either parsed from a file (owned by
// a Context, invalidated on the next mutating or Close call) or built fresh
// via NewCollection (owned by the caller).
type Collection = tagmodel.Collection

// NewCollection returns an empty, caller-owned Collection for use with
// WriteTags.
func NewCollection() *Collection {
	return tagmodel.New()
}
