package mp4box

import (
	"bytes"
	"encoding/binary"
	"testing"

	mp4binary "github.com/mportier/mp4tag/internal/binary"
)

func makeStandardBox(typ string, payload []byte) []byte {
	buf := &bytes.Buffer{}
	size := uint32(8 + len(payload))
	_ = binary.Write(buf, binary.BigEndian, size)
	buf.WriteString(typ)
	buf.Write(payload)
	return buf.Bytes()
}

func TestReadHeaderStandard(t *testing.T) {
	data := makeStandardBox("moov", []byte{1, 2, 3, 4})
	sr := mp4binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "t.mp4")

	b, err := ReadHeader(sr, 0, int64(len(data)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Type.String() != "moov" {
		t.Errorf("type = %q, want moov", b.Type)
	}
	if b.HeaderSize != 8 || b.TotalSize != 12 {
		t.Errorf("header=%d total=%d, want 8/12", b.HeaderSize, b.TotalSize)
	}
	if b.DataOffset() != 8 || b.DataSize() != 4 {
		t.Errorf("dataOffset=%d dataSize=%d, want 8/4", b.DataOffset(), b.DataSize())
	}
}

func TestReadHeaderExtended(t *testing.T) {
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.BigEndian, uint32(1))
	buf.WriteString("mdat")
	_ = binary.Write(buf, binary.BigEndian, uint64(24))
	buf.Write(make([]byte, 8))
	data := buf.Bytes()

	sr := mp4binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "t.mp4")
	b, err := ReadHeader(sr, 0, int64(len(data)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.HeaderSize != 16 || b.TotalSize != 24 {
		t.Errorf("header=%d total=%d, want 16/24", b.HeaderSize, b.TotalSize)
	}
}

func TestReadHeaderToEOF(t *testing.T) {
	data := makeStandardBox("free", make([]byte, 10))
	binary.BigEndian.PutUint32(data, 0) // size field = 0 means to-EOF
	sr := mp4binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "t.mp4")

	b, err := ReadHeader(sr, 0, int64(len(data)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.TotalSize != int64(len(data)) {
		t.Errorf("totalSize = %d, want %d", b.TotalSize, len(data))
	}
}

func TestReadHeaderCorruptSmallerThanHeader(t *testing.T) {
	data := make([]byte, 8)
	binary.BigEndian.PutUint32(data, 4) // smaller than the 8-byte header itself
	copy(data[4:], "free")
	sr := mp4binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "t.mp4")

	if _, err := ReadHeader(sr, 0, int64(len(data))); err == nil {
		t.Fatal("expected error for undersized box")
	}
}

func TestWriteHeaderAndFree(t *testing.T) {
	buf := &bytes.Buffer{}
	sw := mp4binary.NewSafeWriter(buf)

	if err := WriteFree(sw, 16); err != nil {
		t.Fatalf("WriteFree: %v", err)
	}
	out := buf.Bytes()
	if len(out) != 16 {
		t.Fatalf("len = %d, want 16", len(out))
	}
	if binary.BigEndian.Uint32(out[0:4]) != 16 {
		t.Errorf("size field = %d, want 16", binary.BigEndian.Uint32(out[0:4]))
	}
	if string(out[4:8]) != "free" {
		t.Errorf("type = %q, want free", out[4:8])
	}
	for _, b := range out[8:] {
		if b != 0 {
			t.Fatalf("expected zeroed padding, got %v", out[8:])
		}
	}
}

func TestWriteFreeRejectsUndersized(t *testing.T) {
	sw := mp4binary.NewSafeWriter(&bytes.Buffer{})
	if err := WriteFree(sw, 4); err == nil {
		t.Fatal("expected error for free box smaller than header")
	}
}

func TestStrToFourCC(t *testing.T) {
	f := StrToFourCC("moov")
	if f != (FourCC{'m', 'o', 'o', 'v'}) {
		t.Errorf("got %v, want moov", f)
	}
	short := StrToFourCC("ab")
	if short[2] != 0 || short[3] != 0 {
		t.Errorf("expected NUL padding, got %v", short)
	}
}

// FourCC values that are not plain ASCII (e.g. the iTunes "©nam" atom, whose
// first byte is the single byte 0x A9, not the two-byte UTF-8 encoding of the
// © rune) must be built from explicit bytes, never from a Go string literal.
func TestFourCCNonASCII(t *testing.T) {
	f := FourCC{0xA9, 'n', 'a', 'm'}
	if len(f.String()) != 4 {
		t.Fatalf("String() must stay a 4-byte raw string, got %d bytes", len(f.String()))
	}
}
