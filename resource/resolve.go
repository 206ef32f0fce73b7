package resource

import (
	"errors"
	"fmt"
	"log"

	"gitlab.com/stephen-fox/gmpatch/memory"
	"gitlab.com/stephen-fox/gmpatch/textcodec"
)

// Catalog holds every entry found by a Resolver.
type Catalog struct {
	Audio   []Entry
	Strings []Entry

	// Secondary lists the secondary pointers that were located
	// for Audio entries.
	Secondary []SecondaryMatch

	Diags []Diag
}

// Resolver locates the resource tables of a target.
//
// A table that cannot be resolved leaves its part of the Catalog
// empty and adds a Diag. Resolution of the other tables carries on.
type Resolver struct {
	Space   memory.AddressSpace
	Anchors memory.Anchors

	AudioLayout    TableLayout
	StringLayout   TableLayout
	ExternalLayout ExternalLayout
	HeapWindow     HeapWindow

	// SkipExternal disables ScanExternalTables.
	SkipExternal bool

	// SkipSecondary disables LocateSecondaryPointers.
	SkipSecondary bool

	// OptLogger is an optional logger that, when non-nil, receives
	// a message for every table and pointer that is found.
	OptLogger *log.Logger
}

// NewResolver returns a Resolver using the known layouts.
func NewResolver(space memory.AddressSpace, anchors memory.Anchors) *Resolver {
	return &Resolver{
		Space:          space,
		Anchors:        anchors,
		AudioLayout:    AudioTableLayout,
		StringLayout:   StringTableLayout,
		ExternalLayout: AudioGroupLayout,
		HeapWindow:     DefaultHeapWindow,
	}
}

// Resolve resolves the audio table, the string table, the external
// audio tables, and the audio entries' secondary pointers, in that
// order.
func (o *Resolver) Resolve() Catalog {
	var diags Diags
	var catalog Catalog

	if anchor, hasIt := o.Anchors.Lookup(AnchorAudio); hasIt {
		catalog.Audio = o.resolveAudio(anchor, &diags)
	} else {
		diags.Addf(0, DiagUnresolved, "build '%s' has no %s anchor", o.Anchors.Build(), AnchorAudio)
	}

	if anchor, hasIt := o.Anchors.Lookup(AnchorStrings); hasIt {
		catalog.Strings = o.resolveStrings(anchor, &diags)
	} else {
		diags.Addf(0, DiagUnresolved, "build '%s' has no %s anchor", o.Anchors.Build(), AnchorStrings)
	}

	if !o.SkipExternal || !o.SkipSecondary {
		regions, err := o.Space.Regions()
		if err != nil {
			diags.Addf(0, DiagUnreadable, "failed to enumerate regions - %s", err)
		}

		if !o.SkipExternal {
			for _, ext := range ScanExternalTables(o.Space, regions, o.ExternalLayout, &diags) {
				o.logf("found audio group %d in %s with %d entries (correction 0x%x)",
					ext.Group, ext.Region, len(ext.Slots), ext.Correction)

				catalog.Audio = append(catalog.Audio, o.audioEntries(ext.Table, ext.Group, &diags)...)
			}
		}

		if !o.SkipSecondary && len(catalog.Audio) > 0 {
			catalog.Secondary = LocateSecondaryPointers(o.Space, catalog.Audio, regions, o.HeapWindow, &diags)
			for _, m := range catalog.Secondary {
				o.logf("found %s for %s", m, catalog.Audio[m.Entry].Address)
			}
		}
	}

	catalog.Diags = diags.Items()

	return catalog
}

func (o *Resolver) resolveAudio(anchor memory.Addr, diags *Diags) []Entry {
	o.checkTag(anchor, o.AudioLayout, diags)

	table, err := ResolveFixedTable(o.Space, anchor, o.AudioLayout)
	if err != nil {
		o.tableDiag(anchor, AnchorAudio, err, diags)
		return nil
	}

	o.logf("found %d audio entries at %s (correction 0x%x)", len(table.Slots), anchor, table.Correction)

	return o.audioEntries(table, NoGroup, diags)
}

func (o *Resolver) audioEntries(table Table, group int, diags *Diags) []Entry {
	entries := make([]Entry, len(table.Slots))

	for i, slot := range table.Slots {
		label := fmt.Sprintf("EmbeddedSound %d", i)
		if group != NoGroup {
			label = fmt.Sprintf("AudioGroup %d EmbeddedSound %d", group, i)
		}

		size, err := memory.ReadUint32(o.Space, slot.Address)
		if err != nil {
			diags.Addf(slot.Address, DiagUnreadable, "%s - failed to read length - %s", label, err)
		}

		entries[i] = Entry{
			Kind:         KindAudio,
			Label:        label,
			Group:        group,
			Slot:         slot.Slot,
			Correction:   table.Correction,
			Address:      slot.Address,
			OriginalSize: size,
		}
	}

	return entries
}

func (o *Resolver) resolveStrings(anchor memory.Addr, diags *Diags) []Entry {
	o.checkTag(anchor, o.StringLayout, diags)

	table, err := ResolveSentinelTable(o.Space, anchor, o.StringLayout, SentinelThreshold)
	if err != nil {
		o.tableDiag(anchor, AnchorStrings, err, diags)
		return nil
	}

	o.logf("found %d string entries at %s (correction 0x%x)", len(table.Slots), anchor, table.Correction)

	entries := make([]Entry, len(table.Slots))

	for i, slot := range table.Slots {
		size, err := memory.ReadUint32(o.Space, slot.Address)
		if err != nil {
			diags.Addf(slot.Address, DiagUnreadable, "string %d - failed to read length - %s", i, err)
		}

		text, err := textcodec.Decode(o.Space, slot.Address)
		if err != nil {
			diags.Addf(slot.Address, DiagUnreadable, "string %d - %s", i, err)
		}

		entries[i] = Entry{
			Kind:         KindText,
			Label:        text,
			Group:        NoGroup,
			Slot:         slot.Slot,
			Correction:   table.Correction,
			Address:      slot.Address,
			OriginalSize: size,
			Text:         text,
		}
	}

	return entries
}

func (o *Resolver) checkTag(anchor memory.Addr, layout TableLayout, diags *Diags) {
	if layout.Tag == "" {
		return
	}

	header, err := ReadChunkHeader(o.Space, anchor)
	if err != nil {
		diags.Addf(anchor, DiagUnreadable, "%s", err)
		return
	}

	if string(header.Tag[:]) != layout.Tag {
		diags.Addf(anchor, DiagTagMismatch, "expected chunk tag %q - got %q", layout.Tag, header.Tag[:])
	}
}

func (o *Resolver) tableDiag(anchor memory.Addr, name string, err error, diags *Diags) {
	if errors.Is(err, ErrTableEmpty) {
		diags.Addf(anchor, DiagEmpty, "%s table holds no entries", name)
		return
	}

	diags.Addf(anchor, DiagUnresolved, "%s table - %s", name, err)
}

func (o *Resolver) logf(format string, args ...any) {
	if o.OptLogger != nil {
		o.OptLogger.Printf(format, args...)
	}
}
