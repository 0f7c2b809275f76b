package itemcodec

import (
	"strings"

	"github.com/mportier/mp4tag/internal/mp4box"
)

// nameToFourCC is the canonical name -> atom table. Forward lookup is
// case-insensitive on the name; reverse lookup (fourCCToName) returns the
// first canonical name registered for a given FourCC.
var nameToFourCC = map[string]mp4box.FourCC{
	"TITLE":              {0xA9, 'n', 'a', 'm'},
	"ARTIST":             {0xA9, 'A', 'R', 'T'},
	"ALBUM":              {0xA9, 'a', 'l', 'b'},
	"ALBUM_ARTIST":       mp4box.StrToFourCC("aART"),
	"DATE_RELEASED":      {0xA9, 'd', 'a', 'y'},
	"TRACK_NUMBER":       mp4box.StrToFourCC("trkn"),
	"DISC_NUMBER":        mp4box.StrToFourCC("disk"),
	"GENRE":              {0xA9, 'g', 'e', 'n'},
	"COMPOSER":           {0xA9, 'w', 'r', 't'},
	"COMMENT":            {0xA9, 'c', 'm', 't'},
	"ENCODER":            {0xA9, 't', 'o', 'o'},
	"COPYRIGHT":          mp4box.StrToFourCC("cprt"),
	"BPM":                mp4box.StrToFourCC("tmpo"),
	"LYRICS":             {0xA9, 'l', 'y', 'r'},
	"GROUPING":           {0xA9, 'g', 'r', 'p'},
	"DESCRIPTION":        mp4box.StrToFourCC("desc"),
	"COVER_ART":          mp4box.StrToFourCC("covr"),
	"COMPILATION":        mp4box.StrToFourCC("cpil"),
	"GAPLESS":            mp4box.StrToFourCC("pgap"),
	"SORT_NAME":          mp4box.StrToFourCC("sonm"),
	"SORT_ARTIST":        mp4box.StrToFourCC("soar"),
	"SORT_ALBUM":         mp4box.StrToFourCC("soal"),
	"SORT_ALBUM_ARTIST":  mp4box.StrToFourCC("soaa"),
	"SORT_COMPOSER":      mp4box.StrToFourCC("soco"),
}

// fourCCToName is built once from nameToFourCC for reverse lookup; iteration
// order over a Go map is not insertion order, so ambiguity between two names
// mapping to the same FourCC is not possible in this table (each FourCC is
// registered exactly once).
var fourCCToName = func() map[mp4box.FourCC]string {
	m := make(map[mp4box.FourCC]string, len(nameToFourCC))
	for name, fourCC := range nameToFourCC {
		m[fourCC] = name
	}
	return m
}()

// FourCCForName resolves a human tag name to its FourCC. Lookup is
// ASCII case-insensitive. If the name is not in the table but is exactly 4
// bytes long (ASCII or not), it is used verbatim as a raw FourCC. Returns false
// if neither resolution succeeds.
func FourCCForName(name string) (mp4box.FourCC, bool) {
	for key, fourCC := range nameToFourCC {
		if strings.EqualFold(key, name) {
			return fourCC, true
		}
	}
	if len(name) == 4 {
		return mp4box.StrToFourCC(name), true
	}
	return mp4box.FourCC{}, false
}

// NameForFourCC resolves a FourCC to its canonical human name. If the FourCC
// is unmapped, the raw FourCC bytes stringified is returned instead (non-ASCII
// bytes preserved verbatim).
func NameForFourCC(fourCC mp4box.FourCC) string {
	if name, ok := fourCCToName[fourCC]; ok {
		return name
	}
	return fourCC.String()
}
