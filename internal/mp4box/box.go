// Package mp4box provides the lowest-level ISO-BMFF primitives: box header
// read/write, FourCC conversions, and free-box padding.
package mp4box

import (
	"fmt"

	"github.com/mportier/mp4tag/internal/binary"
	"github.com/mportier/mp4tag/internal/mp4errs"
)

var (
	ErrTruncated  = mp4errs.ErrTruncated
	ErrCorrupt    = mp4errs.ErrCorrupt
	ErrInvalidArg = mp4errs.ErrInvalidArg
)

// FourCC is a 4-byte big-endian box type code. Bytes need not be ASCII
// (0xA9 "©" is common in iTunes atom names).
type FourCC [4]byte

func (f FourCC) String() string { return string(f[:]) }

// StrToFourCC builds a FourCC from a string, right-padding short strings
// with NUL and truncating long ones to 4 bytes.
func StrToFourCC(s string) FourCC {
	var f FourCC
	copy(f[:], s)
	return f
}

const (
	HeaderSizeStandard = 8
	HeaderSizeExtended = 16
)

// Box describes one parsed box header and its extent in the file.
type Box struct {
	Type       FourCC
	Offset     int64
	HeaderSize int64
	TotalSize  int64
}

// DataOffset is the offset of the first payload byte.
func (b Box) DataOffset() int64 { return b.Offset + b.HeaderSize }

// DataSize is the size of the payload, excluding the header.
func (b Box) DataSize() int64 { return b.TotalSize - b.HeaderSize }

// End is the offset one past the last byte of the box.
func (b Box) End() int64 { return b.Offset + b.TotalSize }

// ReadHeader reads the box header at off. fileSize is the size of the whole
// file, used to resolve a to-EOF box (size field == 0).
func ReadHeader(sr *binary.SafeReader, off int64, fileSize int64) (Box, error) {
	size32, err := binary.Read[uint32](sr, off, "box size")
	if err != nil {
		return Box{}, fmt.Errorf("%w: %v", ErrTruncated, err)
	}

	typeBuf := make([]byte, 4)
	if err := sr.ReadAt(typeBuf, off+4, "box type"); err != nil {
		return Box{}, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	var typ FourCC
	copy(typ[:], typeBuf)

	var headerSize int64 = HeaderSizeStandard
	var totalSize int64

	switch size32 {
	case 0:
		totalSize = fileSize - off
	case 1:
		size64, err := binary.Read[uint64](sr, off+8, "extended box size")
		if err != nil {
			return Box{}, fmt.Errorf("%w: %v", ErrTruncated, err)
		}
		headerSize = HeaderSizeExtended
		totalSize = int64(size64)
	default:
		totalSize = int64(size32)
	}

	if totalSize < headerSize {
		return Box{}, fmt.Errorf("%w: box %q at %d declares size %d smaller than its %d-byte header",
			ErrCorrupt, typ, off, totalSize, headerSize)
	}
	if off+totalSize > fileSize {
		return Box{}, fmt.Errorf("%w: box %q at %d extends to %d past file size %d",
			ErrTruncated, typ, off, off+totalSize, fileSize)
	}

	return Box{Type: typ, Offset: off, HeaderSize: headerSize, TotalSize: totalSize}, nil
}

// WriteHeader appends a standard 8-byte box header (size must fit in uint32).
func WriteHeader(sw *binary.SafeWriter, typ FourCC, size uint32) error {
	if err := binary.Write[uint32](sw, size); err != nil {
		return err
	}
	return sw.WriteBytes(typ[:])
}

// FreeBoxType is the padding box used to fill unused space.
var FreeBoxType = StrToFourCC("free")

// WriteFree appends a `free` box of exactly totalSize bytes (header + zeroed
// payload). totalSize must be >= 8; callers must never request a smaller pad,
// since an 8-byte free box is itself the smallest legal box.
func WriteFree(sw *binary.SafeWriter, totalSize int64) error {
	if totalSize < HeaderSizeStandard {
		return fmt.Errorf("%w: free box size %d smaller than minimum header", ErrInvalidArg, totalSize)
	}
	if err := WriteHeader(sw, FreeBoxType, uint32(totalSize)); err != nil {
		return err
	}
	if totalSize > HeaderSizeStandard {
		return sw.WriteBytes(make([]byte, totalSize-HeaderSizeStandard))
	}
	return nil
}
