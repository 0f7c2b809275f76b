package mp4tag

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/mportier/mp4tag/internal/itemcodec"
	"github.com/mportier/mp4tag/internal/tagmodel"
)

func box(typ string, payload []byte) []byte {
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.BigEndian, uint32(8+len(payload)))
	buf.WriteString(typ)
	buf.Write(payload)
	return buf.Bytes()
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// buildSampleFile constructs a minimal valid m4a file with the given ilst
// item bytes and trailingFreeTotal bytes of padding after ilst (0 = none).
func buildSampleFile(t *testing.T, ilstItems []byte, trailingFreeTotal int) string {
	t.Helper()
	ftyp := box("ftyp", append([]byte("M4A "), make([]byte, 8)...))
	ilst := box("ilst", ilstItems)
	var free []byte
	if trailingFreeTotal > 0 {
		free = box("free", make([]byte, trailingFreeTotal-8))
	}
	metaPayload := concat(make([]byte, 4), box("hdlr", make([]byte, 25)), ilst, free)
	meta := box("meta", metaPayload)
	udta := box("udta", meta)
	mvhd := box("mvhd", make([]byte, 100))
	moov := box("moov", concat(mvhd, udta))
	mdat := box("mdat", []byte("original-mdat-payload"))
	data := concat(ftyp, moov, mdat)

	dir := t.TempDir()
	path := filepath.Join(dir, "sample.m4a")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func buildTitleArtistFile(t *testing.T, trailingFreeTotal int) string {
	t.Helper()
	coll := tagmodel.New()
	tag := coll.AddTag(tagmodel.TargetAlbum)
	tag.AddSimple("TITLE", "Test Title")
	tag.AddSimple("ARTIST", "Test Artist")
	items, err := itemcodec.EncodeIlst(coll)
	if err != nil {
		t.Fatalf("EncodeIlst: %v", err)
	}
	return buildSampleFile(t, items, trailingFreeTotal)
}

// E1: read UTF-8 text, including case-insensitive lookup and TagTooLarge.
func TestReadTagStringUTF8(t *testing.T) {
	path := buildTitleArtistFile(t, 0)
	ctx, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ctx.Close()

	buf := make([]byte, 64)
	for _, name := range []string{"TITLE", "Title", "title"} {
		n, err := ctx.ReadTagString(name, buf)
		if err != nil {
			t.Fatalf("ReadTagString(%q): %v", name, err)
		}
		if got := string(buf[:n]); got != "Test Title" {
			t.Errorf("ReadTagString(%q) = %q, want Test Title", name, got)
		}
	}

	n, err := ctx.ReadTagString("ARTIST", buf)
	if err != nil || string(buf[:n]) != "Test Artist" {
		t.Errorf("ARTIST = %q, err=%v", string(buf[:n]), err)
	}

	if _, err := ctx.ReadTagString("NONEXISTENT", buf); err != ErrTagNotFound {
		t.Errorf("expected ErrTagNotFound, got %v", err)
	}

	small := make([]byte, 4)
	if _, err := ctx.ReadTagString("TITLE", small); err != ErrTagTooLarge {
		t.Errorf("expected ErrTagTooLarge, got %v", err)
	}
}

// E2: read integer atoms.
func TestReadTagStringIntegerAtoms(t *testing.T) {
	coll := tagmodel.New()
	tag := coll.AddTag(tagmodel.TargetAlbum)
	tag.AddSimple("TRACK_NUMBER", "3/12")
	tag.AddSimple("BPM", "128")
	tag.AddSimple("COMPILATION", "1")
	items, err := itemcodec.EncodeIlst(coll)
	if err != nil {
		t.Fatalf("EncodeIlst: %v", err)
	}
	path := buildSampleFile(t, items, 0)

	ctx, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ctx.Close()

	buf := make([]byte, 32)
	cases := map[string]string{"TRACK_NUMBER": "3/12", "BPM": "128", "COMPILATION": "1"}
	for name, want := range cases {
		n, err := ctx.ReadTagString(name, buf)
		if err != nil {
			t.Fatalf("ReadTagString(%q): %v", name, err)
		}
		if got := string(buf[:n]); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
}

// E3: in-place update preserves file length and mdat.
func TestSetTagStringInPlace(t *testing.T) {
	path := buildTitleArtistFile(t, 512)

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	originalSize := info.Size()

	ctx, err := OpenRW(path)
	if err != nil {
		t.Fatalf("OpenRW: %v", err)
	}
	if err := ctx.SetTagString("TITLE", "New Title"); err != nil {
		t.Fatalf("SetTagString: %v", err)
	}
	ctx.Close()

	info2, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info2.Size() != originalSize {
		t.Errorf("file size changed: got %d, want %d", info2.Size(), originalSize)
	}

	ctx2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer ctx2.Close()

	buf := make([]byte, 64)
	if n, err := ctx2.ReadTagString("TITLE", buf); err != nil || string(buf[:n]) != "New Title" {
		t.Errorf("TITLE = %q, err=%v", string(buf[:n]), err)
	}
	if n, err := ctx2.ReadTagString("ARTIST", buf); err != nil || string(buf[:n]) != "Test Artist" {
		t.Errorf("ARTIST = %q, err=%v", string(buf[:n]), err)
	}
}

// E4: add a new tag when no udta/free space exists at all, forcing rewrite.
func TestSetTagStringRewriteWhenNoUdta(t *testing.T) {
	ftyp := box("ftyp", append([]byte("M4A "), make([]byte, 8)...))
	mvhd := box("mvhd", make([]byte, 100))
	moov := box("moov", mvhd)
	mdat := box("mdat", []byte("original-mdat-payload"))
	data := concat(ftyp, moov, mdat)

	dir := t.TempDir()
	path := filepath.Join(dir, "no-udta.m4a")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx, err := OpenRW(path)
	if err != nil {
		t.Fatalf("OpenRW: %v", err)
	}
	if err := ctx.SetTagString("TITLE", "Brand New Title"); err != nil {
		t.Fatalf("SetTagString: %v", err)
	}
	ctx.Close()

	ctx2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer ctx2.Close()

	buf := make([]byte, 64)
	if n, err := ctx2.ReadTagString("TITLE", buf); err != nil || string(buf[:n]) != "Brand New Title" {
		t.Errorf("TITLE = %q, err=%v", string(buf[:n]), err)
	}
}

// E5: remove a tag.
func TestRemoveTag(t *testing.T) {
	path := buildTitleArtistFile(t, 0)

	ctx, err := OpenRW(path)
	if err != nil {
		t.Fatalf("OpenRW: %v", err)
	}
	if err := ctx.RemoveTag("ARTIST"); err != nil {
		t.Fatalf("RemoveTag: %v", err)
	}
	ctx.Close()

	ctx2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer ctx2.Close()

	buf := make([]byte, 64)
	if n, err := ctx2.ReadTagString("TITLE", buf); err != nil || string(buf[:n]) != "Test Title" {
		t.Errorf("TITLE = %q, err=%v", string(buf[:n]), err)
	}
	if _, err := ctx2.ReadTagString("ARTIST", buf); err != ErrTagNotFound {
		t.Errorf("expected ErrTagNotFound for ARTIST, got %v", err)
	}
}

// E6: read-only protection.
func TestReadOnlyProtection(t *testing.T) {
	path := buildTitleArtistFile(t, 0)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	ctx, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ctx.Close()

	if err := ctx.SetTagString("TITLE", "Should Not Write"); err != ErrReadOnly {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
	if err := ctx.RemoveTag("TITLE"); err != ErrReadOnly {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
	if err := ctx.WriteTags(NewCollection()); err != ErrReadOnly {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}

	info2, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !info2.ModTime().Equal(info.ModTime()) || info2.Size() != info.Size() {
		t.Errorf("file was modified despite read-only open")
	}
}

// Invariant 7: cached-collection invalidation.
func TestCachedCollectionInvalidatedOnWrite(t *testing.T) {
	path := buildTitleArtistFile(t, 512)
	ctx, err := OpenRW(path)
	if err != nil {
		t.Fatalf("OpenRW: %v", err)
	}
	defer ctx.Close()

	first, err := ctx.ReadTags()
	if err != nil {
		t.Fatalf("ReadTags: %v", err)
	}
	if err := ctx.SetTagString("TITLE", "Changed"); err != nil {
		t.Fatalf("SetTagString: %v", err)
	}
	second, err := ctx.ReadTags()
	if err != nil {
		t.Fatalf("ReadTags after write: %v", err)
	}
	if first == second {
		t.Error("expected a freshly parsed collection after a mutating call, got the stale cached pointer")
	}
	if got := second.Album().Find("TITLE"); got == nil || got.Value != "Changed" {
		t.Errorf("second.Album().Find(TITLE) = %+v, want Changed", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	path := buildTitleArtistFile(t, 0)
	ctx, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got: %v", err)
	}
	if ctx.IsOpen() {
		t.Error("IsOpen() true after Close")
	}
}

func TestOpenManyAndBatchSetTagString(t *testing.T) {
	p1 := buildTitleArtistFile(t, 0)
	p2 := buildTitleArtistFile(t, 0)

	ctxs, err := OpenMany(context.Background(), p1, p2)
	if err != nil {
		t.Fatalf("OpenMany: %v", err)
	}
	for _, c := range ctxs {
		if !c.IsOpen() {
			t.Error("expected every Context from OpenMany to be open")
		}
		c.Close()
	}

	if err := BatchSetTagString(context.Background(), []string{p1, p2}, "TITLE", "Batched Title"); err != nil {
		t.Fatalf("BatchSetTagString: %v", err)
	}

	for _, p := range []string{p1, p2} {
		ctx, err := Open(p)
		if err != nil {
			t.Fatalf("reopen %s: %v", p, err)
		}
		buf := make([]byte, 32)
		n, err := ctx.ReadTagString("TITLE", buf)
		ctx.Close()
		if err != nil || string(buf[:n]) != "Batched Title" {
			t.Errorf("%s TITLE = %q, err=%v", p, string(buf[:n]), err)
		}
	}
}
