// Package mp4write implements the two-strategy metadata writer: an in-place
// update that reuses ilst plus any trailing free-box padding, falling back to
// a full rewrite-then-rename that preserves mdat and every other moov child
// verbatim.
package mp4write

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	mp4binary "github.com/mportier/mp4tag/internal/binary"
	"github.com/mportier/mp4tag/internal/itemcodec"
	"github.com/mportier/mp4tag/internal/mp4box"
	"github.com/mportier/mp4tag/internal/mp4errs"
	"github.com/mportier/mp4tag/internal/mp4tree"
	"github.com/mportier/mp4tag/internal/tagmodel"
)

// errNoSpace is the private signal Strategy 1 uses to tell the caller to
// escalate to Strategy 2. It must never be returned from Write.
var errNoSpace = fmt.Errorf("%w: no space for in-place update", mp4errs.ErrIo)

const copyBufferSize = 64 * 1024

// Write applies the given collection to the file at path, described by fm.
// It tries Strategy 1 first (unless forceRewrite is set) and falls back to
// Strategy 2 on NoSpace. Returns the refreshed FileMap after the write.
func Write(path string, fm *mp4tree.FileMap, fileSize int64, coll *tagmodel.Collection, forceRewrite bool) (*mp4tree.FileMap, error) {
	if !forceRewrite && fm.HasIlst {
		newFm, err := tryInPlace(path, fm, fileSize, coll)
		if err == nil {
			return newFm, nil
		}
		if err != errNoSpace {
			return nil, err
		}
	}
	return rewrite(path, fm, fileSize, coll)
}

// tryInPlace attempts Strategy 1. It returns errNoSpace if the new ilst plus
// any trailing free box does not fit in the space the old ilst+free
// occupied; any other error is a genuine I/O failure.
func tryInPlace(path string, fm *mp4tree.FileMap, fileSize int64, coll *tagmodel.Collection) (*mp4tree.FileMap, error) {
	ilstContent, err := itemcodec.EncodeIlst(coll)
	if err != nil {
		return nil, err
	}
	newIlstTotal := int64(mp4box.HeaderSizeStandard + len(ilstContent))

	available := fm.Ilst.Size
	if fm.HasTrailingFree {
		available += fm.TrailingFree.Size
	}
	if newIlstTotal > available {
		return nil, errNoSpace
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mp4errs.ErrIo, err)
	}
	defer f.Close()

	sw := mp4binary.NewSafeWriter(&offsetWriter{f: f, off: fm.Ilst.Offset})
	if err := mp4box.WriteHeader(sw, mp4box.StrToFourCC("ilst"), uint32(newIlstTotal)); err != nil {
		return nil, fmt.Errorf("%w: %v", mp4errs.ErrWriteFailed, err)
	}
	if err := sw.WriteBytes(ilstContent); err != nil {
		return nil, fmt.Errorf("%w: %v", mp4errs.ErrWriteFailed, err)
	}

	remaining := available - newIlstTotal
	if remaining > 0 {
		if remaining >= mp4box.HeaderSizeStandard {
			if err := mp4box.WriteFree(sw, remaining); err != nil {
				return nil, fmt.Errorf("%w: %v", mp4errs.ErrWriteFailed, err)
			}
		} else if _, err := f.WriteAt(make([]byte, remaining), fm.Ilst.Offset+newIlstTotal); err != nil {
			return nil, fmt.Errorf("%w: %v", mp4errs.ErrWriteFailed, err)
		}
	}

	if err := f.Sync(); err != nil {
		return nil, fmt.Errorf("%w: %v", mp4errs.ErrIo, err)
	}

	return reparse(path, fileSize)
}

// rewrite implements Strategy 2: copy every top-level box other than moov
// verbatim to a scratch file, rebuild moov with every non-udta child copied
// verbatim plus a freshly built udta, then atomically rename scratch over
// the original.
func rewrite(path string, _ *mp4tree.FileMap, fileSize int64, coll *tagmodel.Collection) (*mp4tree.FileMap, error) {
	src, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mp4errs.ErrIo, err)
	}
	defer src.Close()

	sr := mp4binary.NewSafeReader(src, fileSize, path)

	dir := filepath.Dir(path)
	scratch, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mp4errs.ErrIo, err)
	}
	scratchPath := scratch.Name()

	success := false
	defer func() {
		if !success {
			scratch.Close()
			os.Remove(scratchPath)
		}
	}()

	offset := int64(0)
	for offset < fileSize {
		b, err := mp4box.ReadHeader(sr, offset, fileSize)
		if err != nil {
			return nil, err
		}
		if b.Type == mp4box.StrToFourCC("moov") {
			if err := rebuildMoov(sr, src, scratch, b, fileSize, coll); err != nil {
				return nil, err
			}
		} else {
			if err := copyVerbatim(src, scratch, b.Offset, b.TotalSize); err != nil {
				return nil, fmt.Errorf("%w: %v", mp4errs.ErrIo, err)
			}
		}
		offset += b.TotalSize
	}

	if err := scratch.Sync(); err != nil {
		return nil, fmt.Errorf("%w: %v", mp4errs.ErrIo, err)
	}
	if err := scratch.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", mp4errs.ErrIo, err)
	}
	src.Close()

	if err := os.Rename(scratchPath, path); err != nil {
		return nil, fmt.Errorf("%w: %v", mp4errs.ErrRenameFailed, err)
	}
	success = true

	newSize, err := fileSizeOf(path)
	if err != nil {
		return nil, err
	}
	return reparse(path, newSize)
}

// rebuildMoov measures moov's non-udta children, emits a new moov header,
// copies those children verbatim in original order, then appends a freshly
// built udta carrying coll's tags.
func rebuildMoov(sr *mp4binary.SafeReader, src *os.File, scratch *os.File, moov mp4box.Box, fileSize int64, coll *tagmodel.Collection) error {
	newUdta, err := itemcodec.BuildUdta(coll)
	if err != nil {
		return err
	}

	var kept int64
	offset := moov.DataOffset()
	end := moov.DataOffset() + moov.DataSize()
	var children []mp4box.Box
	for offset < end {
		child, err := mp4box.ReadHeader(sr, offset, fileSize)
		if err != nil {
			return err
		}
		if child.Type != mp4box.StrToFourCC("udta") {
			kept += child.TotalSize
			children = append(children, child)
		}
		offset += child.TotalSize
	}

	newMoovTotal := mp4box.HeaderSizeStandard + kept + int64(len(newUdta))

	sw := mp4binary.NewSafeWriter(scratch)
	if err := mp4box.WriteHeader(sw, mp4box.StrToFourCC("moov"), uint32(newMoovTotal)); err != nil {
		return err
	}

	for _, child := range children {
		if err := copyVerbatimReaderAt(src, scratch, child.Offset, child.TotalSize); err != nil {
			return fmt.Errorf("%w: %v", mp4errs.ErrIo, err)
		}
	}

	return sw.WriteBytes(newUdta)
}

func copyVerbatim(src *os.File, dst *os.File, offset, size int64) error {
	return copyVerbatimReaderAt(src, dst, offset, size)
}

func copyVerbatimReaderAt(src io.ReaderAt, dst io.Writer, offset, size int64) error {
	buf := make([]byte, copyBufferSize)
	remaining := size
	pos := offset
	for remaining > 0 {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}
		read, err := src.ReadAt(buf[:n], pos)
		if err != nil && err != io.EOF {
			return err
		}
		if read == 0 {
			return fmt.Errorf("unexpected EOF copying verbatim box data at %d", pos)
		}
		if _, err := dst.Write(buf[:read]); err != nil {
			return err
		}
		pos += int64(read)
		remaining -= int64(read)
	}
	return nil
}

func reparse(path string, fileSize int64) (*mp4tree.FileMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mp4errs.ErrIo, err)
	}
	defer f.Close()
	sr := mp4binary.NewSafeReader(f, fileSize, path)
	return mp4tree.Parse(sr, fileSize, path)
}

func fileSizeOf(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", mp4errs.ErrIo, err)
	}
	return info.Size(), nil
}

// offsetWriter adapts an *os.File to io.Writer at a fixed starting offset,
// advancing with every write, so SafeWriter can be reused for positioned
// writes during Strategy 1.
type offsetWriter struct {
	f   *os.File
	off int64
}

func (w *offsetWriter) Write(p []byte) (int, error) {
	n, err := w.f.WriteAt(p, w.off)
	w.off += int64(n)
	return n, err
}
