// Package mp4tag reads and writes iTunes-style metadata inside ISO-BMFF
// containers (.mp4, .m4a, .m4b, .m4v, .m4p, .mov): the nested box hierarchy
// moov > udta > meta > ilst holding named items like title, artist, track
// number, and cover art.
//
// # Quick Start
//
//	ctx, err := mp4tag.Open("song.m4a")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer ctx.Close()
//
//	tags, err := ctx.ReadTags()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(tags.Album().Find("TITLE").Value)
//
// # Writing
//
// Open read-write and replace a single tag:
//
//	ctx, err := mp4tag.OpenRW("song.m4a")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer ctx.Close()
//
//	if err := ctx.SetTagString("TITLE", "New Title"); err != nil {
//		log.Fatal(err)
//	}
//
// WriteTags/SetTagString/RemoveTag try an in-place update first, reusing the
// existing ilst box plus any trailing padding, and only fall back to a full
// rewrite-then-rename when there isn't enough room. mdat and every other
// moov child survive a write byte-for-byte.
//
// # Scope
//
// This library edits exactly one region of the container: moov/udta/meta/
// ilst. It does not decode audio or video payload, validate sample tables,
// parse tracks/chapters/DRM atoms, or support concurrent access to a single
// Context from multiple goroutines — separate Contexts on separate files are
// independent and safe to drive concurrently, which is what OpenMany and
// BatchSetTagString do.
//
// # Errors
//
// Operations return one of a closed set of sentinel/typed errors (see
// errors.go): argument errors (ErrNotOpen, ErrReadOnly, ...), resource
// errors (ErrIo, ErrWriteFailed, ...), format errors (ErrNotMp4, ErrCorrupt,
// ...), and tag errors (ErrTagNotFound, ErrTagTooLarge). Use errors.Is/As.
package mp4tag
