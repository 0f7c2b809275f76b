package itemcodec

import (
	"strconv"

	mp4binary "github.com/mportier/mp4tag/internal/binary"
	"github.com/mportier/mp4tag/internal/mp4box"
	"github.com/mportier/mp4tag/internal/mp4errs"
	"github.com/mportier/mp4tag/internal/tagmodel"
)

const dataBoxHeaderSize = 8 // type_indicator(4) + locale(4), after the data box's own 8-byte header

var (
	dataType  = mp4box.StrToFourCC("data")
	trknType  = mp4box.StrToFourCC("trkn")
	diskType  = mp4box.StrToFourCC("disk")
	tmpoType  = mp4box.StrToFourCC("tmpo")
	cpilType  = mp4box.StrToFourCC("cpil")
	pgapType  = mp4box.StrToFourCC("pgap")
)

// Indicator values for the data box's type_indicator field.
const (
	indicatorImplicit = 0
	indicatorUTF8     = 1
	indicatorUTF16    = 2
	indicatorJPEG     = 13
	indicatorPNG      = 14
	indicatorInteger  = 21
)

// DecodeIlst walks the ilst box's children and returns a Collection with a
// single TargetAlbum Tag holding one SimpleTag per decoded item, matching the
// MP4 convention that metadata always targets the album as a whole.
func DecodeIlst(sr *mp4binary.SafeReader, ilst mp4box.Box, fileSize int64) (*tagmodel.Collection, error) {
	coll := tagmodel.New()
	tag := coll.AddTag(tagmodel.TargetAlbum)

	offset := ilst.DataOffset()
	end := ilst.DataOffset() + ilst.DataSize()

	for offset < end {
		item, err := mp4box.ReadHeader(sr, offset, fileSize)
		if err != nil {
			// A corrupt trailing item stops descent without failing the
			// whole parse; tags decoded so far remain valid.
			break
		}
		if item.TotalSize <= 0 {
			break
		}

		st, err := decodeItem(sr, item, fileSize)
		if err == nil && st != nil {
			tag.Simple = append(tag.Simple, st)
		}

		offset += item.TotalSize
	}

	return coll, nil
}

// decodeItem finds the item's first `data` child box with a large enough
// payload and dispatches by atom type first, then by indicator.
func decodeItem(sr *mp4binary.SafeReader, item mp4box.Box, fileSize int64) (*tagmodel.SimpleTag, error) {
	var data mp4box.Box
	found := false

	childOffset := item.DataOffset()
	childEnd := item.DataOffset() + item.DataSize()
	for childOffset < childEnd {
		child, err := mp4box.ReadHeader(sr, childOffset, fileSize)
		if err != nil {
			break
		}
		if child.TotalSize <= 0 {
			break
		}
		if child.Type == dataType && child.DataSize() >= dataBoxHeaderSize {
			data = child
			found = true
			break
		}
		childOffset += child.TotalSize
	}
	if !found {
		return nil, &mp4errs.TagError{Name: item.Type.String(), Reason: "no data child", Err: mp4errs.ErrTagNotFound}
	}

	indicator, err := mp4binary.Read[uint32](sr, data.DataOffset(), "data indicator")
	if err != nil {
		return nil, err
	}
	valueOffset := data.DataOffset() + dataBoxHeaderSize
	valueSize := data.DataSize() - dataBoxHeaderSize
	if valueSize < 0 {
		valueSize = 0
	}

	payload := make([]byte, valueSize)
	if valueSize > 0 {
		if err := sr.ReadAt(payload, valueOffset, "item value"); err != nil {
			return nil, err
		}
	}

	name := NameForFourCC(item.Type)

	switch item.Type {
	case trknType, diskType:
		return &tagmodel.SimpleTag{Name: name, Value: decodeTrackPair(payload)}, nil
	case tmpoType:
		return &tagmodel.SimpleTag{Name: name, Value: strconv.FormatUint(uint64(decodeBEUint(payload)), 10)}, nil
	case cpilType, pgapType:
		return &tagmodel.SimpleTag{Name: name, Value: decodeBoolean(payload)}, nil
	}

	switch indicator {
	case indicatorUTF8, indicatorImplicit:
		return &tagmodel.SimpleTag{Name: name, Value: string(payload)}, nil
	case indicatorInteger:
		return &tagmodel.SimpleTag{Name: name, Value: strconv.FormatUint(decodeBEUint(payload), 10)}, nil
	case indicatorJPEG, indicatorPNG:
		return &tagmodel.SimpleTag{Name: name, Binary: payload}, nil
	default:
		return &tagmodel.SimpleTag{Name: name, Binary: payload}, nil
	}
}

// decodeTrackPair decodes the 8-byte `00 00 NN NN TT TT 00 00` payload used
// by trkn/disk into "N/T" (or "N" if T is zero).
func decodeTrackPair(payload []byte) string {
	if len(payload) < 6 {
		return "0"
	}
	n := uint16(payload[2])<<8 | uint16(payload[3])
	t := uint16(payload[4])<<8 | uint16(payload[5])
	if t > 0 {
		return strconv.Itoa(int(n)) + "/" + strconv.Itoa(int(t))
	}
	return strconv.Itoa(int(n))
}

// decodeBoolean decodes a 1-byte payload as "0" or "1".
func decodeBoolean(payload []byte) string {
	if len(payload) > 0 && payload[0] != 0 {
		return "1"
	}
	return "0"
}

// decodeBEUint decodes a big-endian unsigned integer of 1 to 8 bytes.
func decodeBEUint(payload []byte) uint64 {
	var v uint64
	for _, b := range payload {
		v = v<<8 | uint64(b)
	}
	return v
}
