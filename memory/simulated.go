package memory

import (
	"fmt"
	"sort"
)

// NewSimulated creates an empty simulated address space.
func NewSimulated() *Simulated {
	return &Simulated{}
}

// Simulated is an AddressSpace backed by byte slices. It exists
// so that resolvers and the entry lifecycle can be exercised
// against synthetic memory layouts rather than a live process.
//
// Every successful write is recorded and can be inspected using
// the Writes method.
type Simulated struct {
	regions []simRegion
	writes  []WriteRecord
}

type simRegion struct {
	Region
	data []byte
}

// WriteRecord describes one write made to a Simulated address space.
type WriteRecord struct {
	Addr Addr
	Data []byte
}

// Map maps size zero-filled bytes at start.
func (o *Simulated) Map(start Addr, size int, perms string, name string) error {
	if size <= 0 {
		return fmt.Errorf("region size must be greater than zero")
	}

	r := Region{
		Start: start,
		End:   start + Addr(size),
		Perms: perms,
		Name:  name,
	}

	for _, existing := range o.regions {
		if r.Start < existing.End && existing.Start < r.End {
			return fmt.Errorf("region %s overlaps %s", r, existing.Region)
		}
	}

	o.regions = append(o.regions, simRegion{Region: r, data: make([]byte, size)})
	sort.Slice(o.regions, func(i, j int) bool {
		return o.regions[i].Start < o.regions[j].Start
	})

	return nil
}

// MapOrExit calls Map. If an error occurs, DefaultExitFn is invoked.
func (o *Simulated) MapOrExit(start Addr, size int, perms string, name string) {
	err := o.Map(start, size, perms, name)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to map simulated region - %w", err))
	}
}

// Poke writes p at addr without recording the write. It is meant
// for setting up memory layouts before a test begins.
func (o *Simulated) Poke(addr Addr, p []byte) error {
	r, err := o.find(addr, len(p))
	if err != nil {
		return err
	}

	copy(r.data[addr-r.Start:], p)

	return nil
}

// PokeUint32 writes a little endian 32-bit value at addr without
// recording the write.
func (o *Simulated) PokeUint32(addr Addr, value uint32) error {
	return o.Poke(addr, PointerMakerForX86_32().FromUint(uint64(value)).Bytes())
}

// ReadAt reads n bytes starting at addr.
func (o *Simulated) ReadAt(addr Addr, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("read length cannot be negative")
	}

	r, err := o.find(addr, n)
	if err != nil {
		return nil, err
	}

	off := addr - r.Start
	out := make([]byte, n)
	copy(out, r.data[off:off+Addr(n)])

	return out, nil
}

// WriteAt writes p starting at addr.
func (o *Simulated) WriteAt(addr Addr, p []byte) error {
	r, err := o.find(addr, len(p))
	if err != nil {
		return err
	}

	copy(r.data[addr-r.Start:], p)

	o.writes = append(o.writes, WriteRecord{
		Addr: addr,
		Data: append([]byte(nil), p...),
	})

	return nil
}

// Regions returns the mapped regions in ascending address order.
func (o *Simulated) Regions() ([]Region, error) {
	out := make([]Region, len(o.regions))
	for i := range o.regions {
		out[i] = o.regions[i].Region
	}

	return out, nil
}

// Writes returns every write made through WriteAt so far.
func (o *Simulated) Writes() []WriteRecord {
	return o.writes
}

// WrittenAt reports whether any recorded write touched addr.
func (o *Simulated) WrittenAt(addr Addr) bool {
	for _, w := range o.writes {
		if addr >= w.Addr && addr < w.Addr+Addr(len(w.Data)) {
			return true
		}
	}

	return false
}

// ResetWrites clears the write log.
func (o *Simulated) ResetWrites() {
	o.writes = nil
}

func (o *Simulated) find(addr Addr, n int) (*simRegion, error) {
	for i := range o.regions {
		if o.regions[i].Contains(addr, n) {
			return &o.regions[i], nil
		}
	}

	return nil, fmt.Errorf("%d bytes at %s - %w", n, addr, ErrUnmapped)
}
