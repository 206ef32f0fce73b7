package resource

import (
	"gitlab.com/stephen-fox/gmpatch/memory"
)

const (
	// BuildDFC279c is the name of the only build whose anchors are known.
	BuildDFC279c = "dfc-2.7.9c"

	AnchorAudio   = "audio"
	AnchorStrings = "strings"
	AnchorGameID  = "game_id"

	// SentinelThreshold is the largest slot value that terminates
	// a sentinel table. Real relative offsets are always larger.
	SentinelThreshold = 0x80

	// MaxSentinelSlots bounds the walk of a sentinel table.
	MaxSentinelSlots = 1 << 20

	// MaxTableEntries bounds the declared count of a fixed-count table.
	MaxTableEntries = 1 << 20
)

// KnownAnchors returns an AnchorTable holding the anchors of every
// supported build, with BuildDFC279c selected.
func KnownAnchors() *memory.AnchorTable {
	return memory.NewAnchorTable(BuildDFC279c).
		AddAnchorInBuild(AnchorAudio, 0x0290ac95, BuildDFC279c).
		AddAnchorInBuild(AnchorStrings, 0x01b62c39, BuildDFC279c).
		AddAnchorInBuild(AnchorGameID, 0x00a4e5e0, BuildDFC279c)
}

// TableLayout describes where a pointer table keeps its count and
// slots, relative to the table's anchor.
type TableLayout struct {
	// Tag is the expected IFF chunk tag at the anchor. It is only
	// checked when non-empty.
	Tag string

	// CountOffset is the offset of the 32-bit entry count. It is
	// ignored for sentinel tables.
	CountOffset int

	// FirstSlotOffset is the offset of the first 32-bit slot.
	FirstSlotOffset int
}

var (
	// AudioTableLayout is the layout of the embedded audio table.
	AudioTableLayout = TableLayout{
		Tag:             "AUDO",
		CountOffset:     8,
		FirstSlotOffset: 12,
	}

	// StringTableLayout is the layout of the string table.
	StringTableLayout = TableLayout{
		Tag:             "STRG",
		FirstSlotOffset: 12,
	}
)

// ExternalLayout describes a pointer table stored in its own mapping,
// such as an audio group file loaded at runtime.
type ExternalLayout struct {
	// MinRegionSize is the size a region must exceed to be checked.
	MinRegionSize uint64

	// MarkerOffset is the region offset of Marker.
	MarkerOffset int

	// Marker identifies a region holding a table.
	Marker string

	// Table is the table layout relative to the region's start.
	Table TableLayout
}

// AudioGroupLayout is the layout of external audio group tables.
var AudioGroupLayout = ExternalLayout{
	MinRegionSize: 0xffff,
	MarkerOffset:  0x30,
	Marker:        "FORM",
	Table: TableLayout{
		CountOffset:     0x40,
		FirstSlotOffset: 0x44,
	},
}

// HeapWindow selects the regions that are searched for
// secondary pointers.
type HeapWindow struct {
	// MinSize is the size a region must exceed.
	MinSize uint64

	// MaxStart is the address a region must start below.
	MaxStart memory.Addr

	// MaxSize is the size a region must stay below.
	MaxSize uint64
}

// DefaultHeapWindow matches the runtime's managed heap segment.
var DefaultHeapWindow = HeapWindow{
	MinSize:  1 << 20,
	MaxStart: 0x10000000,
	MaxSize:  4 << 20,
}

// Match reports whether r falls within the window.
func (o HeapWindow) Match(r memory.Region) bool {
	return r.Size() > o.MinSize && r.Start < o.MaxStart && r.Size() < o.MaxSize
}
