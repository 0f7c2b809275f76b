// Package mp4tree validates an ISO-BMFF container's ftyp brand and walks its
// top-level box tree down to moov/udta/meta/hdlr/ilst, recording a FileMap
// the writer and item codec use without re-scanning the file.
package mp4tree

import (
	"fmt"

	"github.com/mportier/mp4tag/internal/mp4box"
	"github.com/mportier/mp4tag/internal/mp4errs"

	mp4binary "github.com/mportier/mp4tag/internal/binary"
)

// metaPayloadPrefix is the version+flags full-box prefix every `meta` box
// carries before its children.
const metaPayloadPrefix = 4

// acceptedMajorBrands are recognized without consulting compatible brands.
var acceptedMajorBrands = map[string]bool{
	"isom": true, "iso2": true, "iso5": true, "iso6": true,
	"mp41": true, "mp42": true,
	"M4A ": true, "M4B ": true, "M4P ": true, "M4V ": true, "M4VH": true,
	"avc1": true, "f4v ": true, "qt  ": true,
	"MSNV": true, "NDAS": true, "dash": true,
	"3gp4": true, "3gp5": true, "3gp6": true, "3g2a": true,
}

// fallbackCompatibleBrands are scanned for when the major brand is unrecognized.
var fallbackCompatibleBrands = map[string]bool{
	"isom": true, "mp41": true, "mp42": true,
	"M4A ": true, "M4B ": true, "M4V ": true, "avc1": true,
}

// Box is a positional record copied out of mp4box.Box for external packages
// that only need offsets/sizes, not the read-path machinery.
type Box struct {
	Offset int64
	Size   int64
}

// FileMap records the presence and position of every box the writer and item
// codec care about. Invariant: HasIlst implies HasMeta and HasUdta.
type FileMap struct {
	Ftyp Box
	Moov Box
	Mdat Box
	HasMdat bool

	Udta Box
	HasUdta bool
	Meta    Box
	HasMeta bool
	Hdlr    Box
	HasHdlr bool
	Ilst    Box
	HasIlst bool

	TrailingFree   Box
	HasTrailingFree bool
}

// Parse validates the ftyp brand, then walks the top-level boxes and
// descends into moov/udta/meta to locate hdlr, ilst, and any trailing free
// box. Only a missing moov is fatal; missing udta/meta/hdlr/ilst simply leave
// the corresponding Has* flag false.
func Parse(sr *mp4binary.SafeReader, fileSize int64, path string) (*FileMap, error) {
	fm := &FileMap{}

	if err := validateFtyp(sr, fileSize, fm); err != nil {
		return nil, err
	}

	if err := scanTopLevel(sr, fileSize, fm); err != nil {
		return nil, err
	}
	if fm.Moov.Size == 0 {
		return nil, &mp4errs.BoxError{Path: path, Offset: 0, Reason: "missing required moov box", Err: mp4errs.ErrNotMp4}
	}

	moov, err := mp4box.ReadHeader(sr, fm.Moov.Offset, fileSize)
	if err != nil {
		return nil, err
	}
	udta, err := findChild(sr, fileSize, moov.DataOffset(), moov.DataSize(), mp4box.StrToFourCC("udta"))
	if err != nil {
		return fm, nil
	}
	fm.Udta = Box{Offset: udta.Offset, Size: udta.TotalSize}
	fm.HasUdta = true

	meta, err := findChild(sr, fileSize, udta.DataOffset(), udta.DataSize(), mp4box.StrToFourCC("meta"))
	if err != nil {
		return fm, nil
	}
	fm.Meta = Box{Offset: meta.Offset, Size: meta.TotalSize}
	fm.HasMeta = true

	metaChildStart := meta.DataOffset() + metaPayloadPrefix
	metaChildEnd := meta.DataOffset() + meta.DataSize()

	if hdlr, err := findChild(sr, fileSize, metaChildStart, metaChildEnd-metaChildStart, mp4box.StrToFourCC("hdlr")); err == nil {
		fm.Hdlr = Box{Offset: hdlr.Offset, Size: hdlr.TotalSize}
		fm.HasHdlr = true
	}

	ilst, err := findChild(sr, fileSize, metaChildStart, metaChildEnd-metaChildStart, mp4box.StrToFourCC("ilst"))
	if err != nil {
		return fm, nil
	}
	fm.Ilst = Box{Offset: ilst.Offset, Size: ilst.TotalSize}
	fm.HasIlst = true

	after := ilst.Offset + ilst.TotalSize
	if after < metaChildEnd {
		if next, err := mp4box.ReadHeader(sr, after, fileSize); err == nil && next.End() <= metaChildEnd {
			if next.Type == mp4box.StrToFourCC("free") || next.Type == mp4box.StrToFourCC("skip") {
				fm.TrailingFree = Box{Offset: next.Offset, Size: next.TotalSize}
				fm.HasTrailingFree = true
			}
		}
	}

	return fm, nil
}

func validateFtyp(sr *mp4binary.SafeReader, fileSize int64, fm *FileMap) error {
	b, err := mp4box.ReadHeader(sr, 0, fileSize)
	if err != nil {
		return fmt.Errorf("%w: %v", mp4errs.ErrNotMp4, err)
	}
	if b.Type != mp4box.StrToFourCC("ftyp") {
		return &mp4errs.BoxError{Offset: 0, Reason: "first box is not ftyp", Err: mp4errs.ErrNotMp4}
	}
	fm.Ftyp = Box{Offset: b.Offset, Size: b.TotalSize}

	if b.DataSize() < 8 {
		return &mp4errs.BoxError{Offset: b.Offset, Reason: "ftyp box too small", Err: mp4errs.ErrBadBox}
	}

	majorBrandBuf := make([]byte, 4)
	if err := sr.ReadAt(majorBrandBuf, b.DataOffset(), "ftyp major brand"); err != nil {
		return fmt.Errorf("%w: %v", mp4errs.ErrTruncated, err)
	}
	if acceptedMajorBrands[string(majorBrandBuf)] {
		return nil
	}

	// Unrecognized major brand: scan compatible-brands list (4 bytes each,
	// starting at payload offset 8) for a recognized fallback brand.
	compatStart := b.DataOffset() + 8
	compatEnd := b.DataOffset() + b.DataSize()
	for off := compatStart; off+4 <= compatEnd; off += 4 {
		buf := make([]byte, 4)
		if err := sr.ReadAt(buf, off, "ftyp compatible brand"); err != nil {
			break
		}
		if fallbackCompatibleBrands[string(buf)] {
			return nil
		}
	}

	return &mp4errs.BoxError{Offset: b.Offset, Reason: "unrecognized ftyp brand", Err: mp4errs.ErrNotMp4}
}

func scanTopLevel(sr *mp4binary.SafeReader, fileSize int64, fm *FileMap) error {
	offset := int64(0)
	for offset < fileSize {
		b, err := mp4box.ReadHeader(sr, offset, fileSize)
		if err != nil {
			return err
		}
		switch b.Type {
		case mp4box.StrToFourCC("moov"):
			fm.Moov = Box{Offset: b.Offset, Size: b.TotalSize}
		case mp4box.StrToFourCC("mdat"):
			fm.Mdat = Box{Offset: b.Offset, Size: b.TotalSize}
			fm.HasMdat = true
		}
		if b.TotalSize <= 0 {
			return &mp4errs.BoxError{Offset: offset, Reason: "box with non-positive size", Err: mp4errs.ErrCorrupt}
		}
		offset += b.TotalSize
	}
	return nil
}

// findChild scans [start, start+length) for the first child box of type typ.
func findChild(sr *mp4binary.SafeReader, fileSize int64, start, length int64, typ mp4box.FourCC) (mp4box.Box, error) {
	end := start + length
	offset := start
	for offset < end {
		b, err := mp4box.ReadHeader(sr, offset, fileSize)
		if err != nil {
			return mp4box.Box{}, err
		}
		if b.Type == typ {
			return b, nil
		}
		if b.TotalSize <= 0 {
			return mp4box.Box{}, &mp4errs.BoxError{Offset: offset, Reason: "box with non-positive size", Err: mp4errs.ErrCorrupt}
		}
		offset += b.TotalSize
	}
	return mp4box.Box{}, &mp4errs.TagError{Name: typ.String(), Reason: "child box not found", Err: mp4errs.ErrTagNotFound}
}
