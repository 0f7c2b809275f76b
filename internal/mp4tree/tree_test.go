package mp4tree

import (
	"bytes"
	"encoding/binary"
	"testing"

	mp4binary "github.com/mportier/mp4tag/internal/binary"
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

// buildFile assembles ftyp + moov(mvhd, udta(meta(4-byte prefix, hdlr, ilst, free))) + mdat.
func buildFile(ilstPayload []byte, trailingFree int) []byte {
	ftyp := box("ftyp", append([]byte("isom"), make([]byte, 8)...))
	hdlr := box("hdlr", make([]byte, 25))
	ilst := box("ilst", ilstPayload)
	free := []byte{}
	if trailingFree > 0 {
		free = box("free", make([]byte, trailingFree-8))
	}
	metaPayload := concat(make([]byte, 4), hdlr, ilst, free)
	meta := box("meta", metaPayload)
	udta := box("udta", meta)
	mvhd := box("mvhd", make([]byte, 100))
	moov := box("moov", concat(mvhd, udta))
	mdat := box("mdat", []byte("payload-bytes"))
	return concat(ftyp, moov, mdat)
}

func TestParseFindsFullChain(t *testing.T) {
	data := buildFile([]byte("ilst-item-bytes"), 32)
	sr := mp4binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "t.m4a")

	fm, err := Parse(sr, int64(len(data)), "t.m4a")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !fm.HasUdta || !fm.HasMeta || !fm.HasHdlr || !fm.HasIlst {
		t.Fatalf("expected full chain, got %+v", fm)
	}
	if !fm.HasTrailingFree {
		t.Error("expected trailing free box to be detected")
	}
	if !fm.HasMdat {
		t.Error("expected mdat to be detected")
	}
}

func TestParseRejectsBadBrand(t *testing.T) {
	ftyp := box("ftyp", append([]byte("xxxx"), make([]byte, 8)...))
	moov := box("moov", box("mvhd", make([]byte, 10)))
	data := concat(ftyp, moov)
	sr := mp4binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "t.m4a")

	if _, err := Parse(sr, int64(len(data)), "t.m4a"); err == nil {
		t.Fatal("expected error for unrecognized brand")
	}
}

func TestParseMissingMoovIsFatal(t *testing.T) {
	ftyp := box("ftyp", append([]byte("isom"), make([]byte, 8)...))
	data := ftyp
	sr := mp4binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "t.m4a")

	if _, err := Parse(sr, int64(len(data)), "t.m4a"); err == nil {
		t.Fatal("expected error for missing moov")
	}
}

func TestParseNoUdtaIsNotFatal(t *testing.T) {
	ftyp := box("ftyp", append([]byte("isom"), make([]byte, 8)...))
	moov := box("moov", box("mvhd", make([]byte, 10)))
	data := concat(ftyp, moov)
	sr := mp4binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "t.m4a")

	fm, err := Parse(sr, int64(len(data)), "t.m4a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fm.HasUdta || fm.HasIlst {
		t.Fatalf("expected no udta/ilst, got %+v", fm)
	}
}
