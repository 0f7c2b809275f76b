package itemcodec

import (
	"bytes"

	mp4binary "github.com/mportier/mp4tag/internal/binary"
	"github.com/mportier/mp4tag/internal/mp4box"
	"github.com/mportier/mp4tag/internal/tagmodel"
)

// hdlrPayload is the fixed 25-byte hdlr box body (33 bytes with its box
// header) used by iTunes-style
// metadata: version+flags, pre_defined, handler_type "mdir", reserved "appl",
// 8 more reserved zero bytes, and a single NUL-terminated empty name.
func hdlrPayload() []byte {
	buf := &bytes.Buffer{}
	buf.Write(make([]byte, 4))             // version + flags
	buf.Write(make([]byte, 4))             // pre_defined
	buf.WriteString("mdir")                // handler_type
	buf.WriteString("appl")                // reserved, holds "appl"
	buf.Write(make([]byte, 8))             // reserved
	buf.WriteByte(0)                       // empty handler name
	return buf.Bytes()
}

// BuildUdta serializes a complete `udta { meta { hdlr; ilst } }` box tree for
// the given collection, for Strategy 2's rewrite path, which appends it to
// the rebuilt moov in place of any udta the file had before. Strategy 1
// does not use it.
func BuildUdta(coll *tagmodel.Collection) ([]byte, error) {
	ilstContent, err := EncodeIlst(coll)
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	sw := mp4binary.NewSafeWriter(buf)

	ilstTotal := mp4box.HeaderSizeStandard + len(ilstContent)
	hdlr := hdlrPayload()
	hdlrTotal := mp4box.HeaderSizeStandard + len(hdlr)

	const metaPrefix = 4
	metaTotal := mp4box.HeaderSizeStandard + metaPrefix + hdlrTotal + ilstTotal
	udtaTotal := mp4box.HeaderSizeStandard + metaTotal

	if err := mp4box.WriteHeader(sw, mp4box.StrToFourCC("udta"), uint32(udtaTotal)); err != nil {
		return nil, err
	}
	if err := mp4box.WriteHeader(sw, mp4box.StrToFourCC("meta"), uint32(metaTotal)); err != nil {
		return nil, err
	}
	if err := sw.WriteBytes(make([]byte, metaPrefix)); err != nil {
		return nil, err
	}
	if err := mp4box.WriteHeader(sw, mp4box.StrToFourCC("hdlr"), uint32(hdlrTotal)); err != nil {
		return nil, err
	}
	if err := sw.WriteBytes(hdlr); err != nil {
		return nil, err
	}
	if err := mp4box.WriteHeader(sw, mp4box.StrToFourCC("ilst"), uint32(ilstTotal)); err != nil {
		return nil, err
	}
	if err := sw.WriteBytes(ilstContent); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
