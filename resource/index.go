package resource

import (
	"errors"
	"fmt"
	"log"
	"math"

	"gitlab.com/stephen-fox/gmpatch/iokit"
	"gitlab.com/stephen-fox/gmpatch/memory"
	"gitlab.com/stephen-fox/gmpatch/textcodec"
)

var (
	// ErrNotSwapped is returned by Restore when an entry still
	// refers to its original memory.
	ErrNotSwapped = errors.New("entry has not been swapped")

	// ErrIndexRange is returned when an entry index is outside
	// of the catalog.
	ErrIndexRange = errors.New("entry index out of range")

	// ErrTornEntry is returned when some, but not all, of an entry's
	// slots were rewritten. Swapping or restoring the entry again
	// retries every write.
	ErrTornEntry = errors.New("entry slots are inconsistent")
)

// Kind is the kind of resource an entry refers to.
type Kind int

const (
	KindAudio Kind = iota
	KindText
)

func (o Kind) String() string {
	switch o {
	case KindAudio:
		return "audio"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("unknown kind (%d)", int(o))
	}
}

// NoGroup is the Group of entries resolved from an anchor table.
const NoGroup = -1

// Entry is one resolved resource.
type Entry struct {
	Kind Kind

	// Label is a human readable name for the entry.
	Label string

	// Group is the external table the entry came from, or NoGroup.
	Group int

	// Slot is the address of the primary pointer slot.
	Slot memory.Addr

	// Correction converts the slot's relative value to an absolute
	// address. It is shared by every entry of the same table.
	Correction uint32

	// Address is the absolute address of the original length prefix.
	Address memory.Addr

	// OriginalSize is the original payload length.
	OriginalSize uint32

	// Text is the original text of a KindText entry.
	Text string

	// SecondarySlot, SecondarySlot2, and SecondarySizeSlot are the
	// runtime's heap-side copies of the pointer, the payload pointer,
	// and the payload length. Zero means the copy was not found.
	SecondarySlot     memory.Addr
	SecondarySlot2    memory.Addr
	SecondarySizeSlot memory.Addr

	swap *SwapBuffer
}

// SwapBuffer returns the buffer currently substituted for the
// entry's original memory, if any.
func (o Entry) SwapBuffer() (SwapBuffer, bool) {
	if o.swap == nil {
		return SwapBuffer{}, false
	}
	return *o.swap, true
}

// Swapped reports whether the entry refers to a swap buffer.
func (o Entry) Swapped() bool {
	return o.swap != nil
}

// SwapBuffer is a block of target memory owned by an Index and
// substituted for an entry's original memory. Only the Index that
// created it can free it.
type SwapBuffer struct {
	block      memory.Block
	payloadLen int
}

// Addr returns the address of the buffer's length prefix.
func (o SwapBuffer) Addr() memory.Addr {
	return o.block.Addr
}

// Len returns the number of bytes written to the buffer, including
// the length prefix and any terminator.
func (o SwapBuffer) Len() int {
	return o.block.Size
}

// PayloadLen returns the length stored in the buffer's prefix.
func (o SwapBuffer) PayloadLen() int {
	return o.payloadLen
}

// Capacity returns the number of bytes reserved for the buffer.
func (o SwapBuffer) Capacity() int {
	return o.block.Capacity
}

// NewIndex creates an Index over a copy of entries. Swap buffers are
// reserved from alloc.
func NewIndex(space memory.AddressSpace, alloc memory.Allocator, entries []Entry) *Index {
	owned := make([]Entry, len(entries))
	copy(owned, entries)
	for i := range owned {
		owned[i].swap = nil
	}

	return &Index{
		space:   space,
		alloc:   alloc,
		entries: owned,
	}
}

// Index is a catalog of resolved entries and the single authority
// over their swap state. Entries are only ever mutated through Swap,
// SwapText, Restore, and RestoreAll.
//
// An Index is not safe for concurrent use.
type Index struct {
	space   memory.AddressSpace
	alloc   memory.Allocator
	entries []Entry

	// OptLogger is an optional logger that, when non-nil, receives
	// a message for every slot write.
	OptLogger *log.Logger
}

// Len returns the number of entries.
func (o *Index) Len() int {
	return len(o.entries)
}

// Entry returns a copy of entry i.
func (o *Index) Entry(i int) (Entry, error) {
	e, err := o.entry(i)
	if err != nil {
		return Entry{}, err
	}

	return *e, nil
}

// Entries returns a copy of every entry.
func (o *Index) Entries() []Entry {
	out := make([]Entry, len(o.entries))
	copy(out, o.entries)
	return out
}

// Live returns the number of swap buffers the Index owns.
func (o *Index) Live() int {
	live := 0
	for i := range o.entries {
		if o.entries[i].swap != nil {
			live++
		}
	}
	return live
}

func (o *Index) entry(i int) (*Entry, error) {
	if i < 0 || i >= len(o.entries) {
		return nil, fmt.Errorf("index %d of %d entries - %w", i, len(o.entries), ErrIndexRange)
	}

	return &o.entries[i], nil
}

// CurrentAddress returns the address of the length prefix entry i
// currently refers to.
func (o *Index) CurrentAddress(i int) (memory.Addr, error) {
	e, err := o.entry(i)
	if err != nil {
		return 0, err
	}

	if e.swap != nil {
		return e.swap.Addr(), nil
	}

	return e.Address, nil
}

// ReadCurrentBytes returns the payload entry i currently refers to,
// without its length prefix or terminator.
func (o *Index) ReadCurrentBytes(i int) ([]byte, error) {
	return o.PeekCurrentBytes(i, -1)
}

// PeekCurrentBytes is like ReadCurrentBytes, but returns at most n
// bytes. A negative n means no limit.
func (o *Index) PeekCurrentBytes(i int, n int) ([]byte, error) {
	e, err := o.entry(i)
	if err != nil {
		return nil, err
	}

	addr := e.Address
	size := int(e.OriginalSize)
	if e.swap != nil {
		addr = e.swap.Addr()
		size = e.swap.PayloadLen()
	}

	if n >= 0 && n < size {
		size = n
	}

	b, err := o.space.ReadAt(addr+textcodec.PrefixSize, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read %d payload bytes of entry %d - %w", size, i, err)
	}

	return b, nil
}

// CurrentText decodes the text entry i currently refers to.
func (o *Index) CurrentText(i int) (string, error) {
	addr, err := o.CurrentAddress(i)
	if err != nil {
		return "", err
	}

	return textcodec.Decode(o.space, addr)
}

// SwapText swaps entry i for text.
func (o *Index) SwapText(i int, text string) error {
	return o.Swap(i, []byte(text))
}

// Swap substitutes payload for the memory entry i refers to.
//
// A new buffer laid out as [length][payload] is written to target
// memory. KindText entries additionally get a NUL terminator. Then
// the primary slot is pointed at the buffer, followed by every
// located secondary slot. A previous swap buffer is freed only
// after the new one is installed.
//
// If the buffer cannot be written, or the primary slot cannot be
// updated, the entry is left untouched and the new buffer is freed.
// If a secondary slot cannot be updated, the new buffer is kept and
// ErrTornEntry is returned.
func (o *Index) Swap(i int, payload []byte) error {
	e, err := o.entry(i)
	if err != nil {
		return err
	}

	record, err := encodeRecord(e.Kind, payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload for entry %d - %w", i, err)
	}

	block, err := o.alloc.Alloc(len(record))
	if err != nil {
		return fmt.Errorf("failed to allocate swap buffer for entry %d - %w", i, err)
	}

	fresh := &SwapBuffer{block: block, payloadLen: len(payload)}

	if uint64(block.Addr)+uint64(block.Capacity) > math.MaxUint32 {
		o.release(fresh)
		return fmt.Errorf("swap buffer at %s is not addressable by 32-bit slots", block.Addr)
	}

	err = o.space.WriteAt(block.Addr, record)
	if err != nil {
		o.release(fresh)
		return fmt.Errorf("failed to write swap buffer for entry %d - %w", i, err)
	}

	err = o.writeSlot(e.Slot, uint32(block.Addr)-e.Correction, "primary")
	if err != nil {
		o.release(fresh)
		return fmt.Errorf("failed to install swap buffer for entry %d - %w", i, err)
	}

	secondaryErr := o.writeSecondary(e, block.Addr, uint32(len(payload)))

	previous := e.swap
	e.swap = fresh

	if o.OptLogger != nil {
		o.OptLogger.Printf("entry %d (%s) now refers to %s (%d bytes, capacity %d)",
			i, e.Label, block.Addr, block.Size, block.Capacity)
	}

	if previous != nil {
		err = o.release(previous)
		if err != nil {
			return fmt.Errorf("swapped entry %d but failed to free the previous buffer - %w", i, err)
		}
	}

	if secondaryErr != nil {
		return fmt.Errorf("swapped entry %d - %w", i, secondaryErr)
	}

	return nil
}

// Restore points entry i back at its original memory and frees its
// swap buffer. ErrNotSwapped is returned, and nothing is written,
// when the entry has not been swapped.
//
// If a secondary slot cannot be restored, the swap buffer is kept
// alive and ErrTornEntry is returned.
func (o *Index) Restore(i int) error {
	e, err := o.entry(i)
	if err != nil {
		return err
	}

	if e.swap == nil {
		return fmt.Errorf("entry %d - %w", i, ErrNotSwapped)
	}

	err = o.writeSlot(e.Slot, uint32(e.Address)-e.Correction, "primary")
	if err != nil {
		return fmt.Errorf("failed to restore entry %d - %w", i, err)
	}

	err = o.writeSecondary(e, e.Address, e.OriginalSize)
	if err != nil {
		return fmt.Errorf("failed to restore entry %d - %w", i, err)
	}

	buf := e.swap
	e.swap = nil

	if o.OptLogger != nil {
		o.OptLogger.Printf("entry %d (%s) restored to %s", i, e.Label, e.Address)
	}

	err = o.release(buf)
	if err != nil {
		return fmt.Errorf("restored entry %d but failed to free its buffer - %w", i, err)
	}

	return nil
}

// RestoreAll restores every swapped entry. It returns the number of
// restored entries and the errors of the entries that failed.
func (o *Index) RestoreAll() (int, error) {
	var errs []error
	restored := 0

	for i := range o.entries {
		if o.entries[i].swap == nil {
			continue
		}

		err := o.Restore(i)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		restored++
	}

	return restored, errors.Join(errs...)
}

func (o *Index) writeSecondary(e *Entry, addr memory.Addr, size uint32) error {
	if e.SecondarySlot != 0 {
		err := o.writeSlot(e.SecondarySlot, uint32(addr), "secondary")
		if err != nil {
			return fmt.Errorf("%s - %w", err, ErrTornEntry)
		}
	}

	if e.SecondarySlot2 != 0 {
		err := o.writeSlot(e.SecondarySlot2, uint32(addr)+textcodec.PrefixSize, "secondary payload")
		if err != nil {
			return fmt.Errorf("%s - %w", err, ErrTornEntry)
		}

		if e.SecondarySizeSlot != 0 {
			err = o.writeSlot(e.SecondarySizeSlot, size, "secondary size")
			if err != nil {
				return fmt.Errorf("%s - %w", err, ErrTornEntry)
			}
		}
	}

	return nil
}

func (o *Index) writeSlot(slot memory.Addr, value uint32, what string) error {
	err := memory.WriteUint32(o.space, slot, value)
	if err != nil {
		return fmt.Errorf("failed to write %s slot - %w", what, err)
	}

	if o.OptLogger != nil {
		o.OptLogger.Printf("wrote 0x%x to %s slot at %s", value, what, slot)
	}

	return nil
}

func (o *Index) release(buf *SwapBuffer) error {
	return o.alloc.Free(buf.block.Addr)
}

func encodeRecord(kind Kind, payload []byte) ([]byte, error) {
	if kind == KindText {
		return textcodec.Encode(string(payload))
	}

	return iokit.NewPayloadBuilder().
		LengthPrefixed(payload).
		Build()
}
