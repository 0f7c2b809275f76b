package itemcodec

import (
	"bytes"
	"strconv"
	"strings"

	mp4binary "github.com/mportier/mp4tag/internal/binary"
	"github.com/mportier/mp4tag/internal/mp4box"
	"github.com/mportier/mp4tag/internal/tagmodel"
)

// pngSignature and jpegSignature are the full magic prefixes of the two
// cover art formats. buildPayload checks only pngSignature: a cover image
// starting with it is labeled PNG, and any other non-empty image is labeled
// JPEG. A bare two-byte `89 50` check (as the table in the
// external-interfaces description implies) would mislabel PNG as JPEG; see
// DESIGN.md for the resolution of this open question.
var (
	pngSignature  = []byte{0x89, 0x50, 0x4E, 0x47}
	jpegSignature = []byte{0xFF, 0xD8, 0xFF}
)

// EncodeIlst serializes every SimpleTag across every Tag in the collection
// into ilst item bytes (items only, no ilst box header). Order matches
// Collection/Tag/SimpleTag iteration order.
func EncodeIlst(coll *tagmodel.Collection) ([]byte, error) {
	buf := &bytes.Buffer{}
	sw := mp4binary.NewSafeWriter(buf)

	for _, tag := range coll.Tags {
		for _, st := range tag.Simple {
			if err := encodeItem(sw, st); err != nil {
				return nil, err
			}
		}
	}

	return buf.Bytes(), nil
}

// encodeItem resolves st.Name to a FourCC and appends one item box. Tags
// whose name resolves to neither a known mapping nor a raw 4-character FourCC
// are silently skipped, matching the encoder's "skip" behavior in spec.md §4.C.
func encodeItem(sw *mp4binary.SafeWriter, st *tagmodel.SimpleTag) error {
	fourCC, ok := FourCCForName(st.Name)
	if !ok {
		return nil
	}

	indicator, payload, ok := buildPayload(fourCC, st)
	if !ok {
		return nil
	}

	dataContentSize := dataBoxHeaderSize + len(payload)
	dataTotalSize := mp4box.HeaderSizeStandard + dataContentSize
	itemTotalSize := mp4box.HeaderSizeStandard + dataTotalSize

	if err := mp4box.WriteHeader(sw, fourCC, uint32(itemTotalSize)); err != nil {
		return err
	}
	if err := mp4box.WriteHeader(sw, dataType, uint32(dataTotalSize)); err != nil {
		return err
	}
	if err := mp4binary.Write[uint32](sw, indicator); err != nil {
		return err
	}
	if err := mp4binary.Write[uint32](sw, 0); err != nil { // locale
		return err
	}
	return sw.WriteBytes(payload)
}

// buildPayload returns the indicator and raw payload bytes for st, or
// ok=false if the tag should be skipped (e.g. an empty cover image).
func buildPayload(fourCC mp4box.FourCC, st *tagmodel.SimpleTag) (indicator uint32, payload []byte, ok bool) {
	switch fourCC {
	case trknType, diskType:
		return indicatorImplicit, encodeTrackPair(st.Value), true
	case tmpoType:
		n, _ := strconv.ParseUint(st.Value, 10, 16)
		buf := make([]byte, 2)
		buf[0] = byte(n >> 8)
		buf[1] = byte(n)
		return indicatorInteger, buf, true
	case cpilType, pgapType:
		b := byte(0)
		if st.Value == "1" || strings.EqualFold(st.Value, "true") {
			b = 1
		}
		return indicatorInteger, []byte{b}, true
	case mp4box.StrToFourCC("covr"):
		if len(st.Binary) == 0 {
			return 0, nil, false
		}
		if bytes.HasPrefix(st.Binary, pngSignature) {
			return indicatorPNG, st.Binary, true
		}
		return indicatorJPEG, st.Binary, true
	default:
		return indicatorUTF8, []byte(st.Value), true
	}
}

// encodeTrackPair parses "N/T" or "N" into the 8-byte
// `00 00 NN NN TT TT 00 00` payload trkn/disk use on the wire.
func encodeTrackPair(value string) []byte {
	var n, t uint64
	parts := strings.SplitN(value, "/", 2)
	n, _ = strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 16)
	if len(parts) == 2 {
		t, _ = strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 16)
	}
	buf := make([]byte, 8)
	buf[2] = byte(n >> 8)
	buf[3] = byte(n)
	buf[4] = byte(t >> 8)
	buf[5] = byte(t)
	return buf
}
