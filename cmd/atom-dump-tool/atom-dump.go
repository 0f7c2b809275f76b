// Command atom-dump-tool prints the box tree of an ISO-BMFF file, using the
// same header-reading primitives the library's parser and writer use. Handy
// for eyeballing where ilst/free actually sit before filing a bug.
package main

import (
	"fmt"
	"os"

	mp4binary "github.com/mportier/mp4tag/internal/binary"
	"github.com/mportier/mp4tag/internal/mp4box"
)

var containers = map[mp4box.FourCC]bool{
	mp4box.StrToFourCC("moov"): true,
	mp4box.StrToFourCC("trak"): true,
	mp4box.StrToFourCC("mdia"): true,
	mp4box.StrToFourCC("minf"): true,
	mp4box.StrToFourCC("stbl"): true,
	mp4box.StrToFourCC("udta"): true,
	mp4box.StrToFourCC("meta"): true,
	mp4box.StrToFourCC("ilst"): true,
	mp4box.StrToFourCC("edts"): true,
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: atom-dump-tool <file.m4a>")
		os.Exit(1)
	}

	path := os.Args[1]
	f, err := os.Open(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	sr := mp4binary.NewSafeReader(f, info.Size(), path)
	dumpBoxes(sr, 0, info.Size(), 0)
}

func dumpBoxes(sr *mp4binary.SafeReader, offset, end int64, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}

	for offset < end {
		b, err := mp4box.ReadHeader(sr, offset, end)
		if err != nil {
			fmt.Printf("%s! %v\n", indent, err)
			return
		}

		fmt.Printf("%s%s (size: %d, offset: %d)\n", indent, b.Type.String(), b.TotalSize, b.Offset)

		if containers[b.Type] {
			dataOffset := b.DataOffset()
			if b.Type == mp4box.StrToFourCC("meta") {
				dataOffset += 4 // version+flags full-box prefix
			}
			dumpBoxes(sr, dataOffset, b.End(), depth+1)
		}

		if b.TotalSize <= 0 {
			return
		}
		offset += b.TotalSize
	}
}
