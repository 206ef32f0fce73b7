package memory

import (
	"encoding/binary"
	"fmt"
)

// WordSize is the size in bytes of a pointer slot in the 32-bit
// runners this module targets.
const WordSize = 4

// PointerMakerForX86_32 returns a PointerMaker for 32-bit little
// endian targets.
func PointerMakerForX86_32() PointerMaker {
	return PointerMaker{
		byteOrder: binary.LittleEndian,
	}
}

// PointerMaker encodes and decodes WordSize words for a particular
// target byte order, and reads or writes them through an AddressSpace.
type PointerMaker struct {
	byteOrder binary.ByteOrder
}

// Size returns the pointer size in bytes.
func (o PointerMaker) Size() int {
	return WordSize
}

// FromUint encodes value as a Pointer. Values wider than 32 bits
// are truncated.
func (o PointerMaker) FromUint(value uint64) Pointer {
	out := make([]byte, WordSize)
	o.byteOrder.PutUint32(out, uint32(value))
	return Pointer{raw: out, value: uint32(value)}
}

// Decode decodes the first word of b.
func (o PointerMaker) Decode(b []byte) (uint32, error) {
	if len(b) < WordSize {
		return 0, fmt.Errorf("need %d bytes to decode a pointer - got %d", WordSize, len(b))
	}

	return o.byteOrder.Uint32(b), nil
}

// Read reads a word at addr.
func (o PointerMaker) Read(space AddressSpace, addr Addr) (uint32, error) {
	b, err := space.ReadAt(addr, WordSize)
	if err != nil {
		return 0, fmt.Errorf("failed to read word at %s - %w", addr, err)
	}

	return o.Decode(b)
}

// Write writes value as a word at addr.
func (o PointerMaker) Write(space AddressSpace, addr Addr, value uint32) error {
	err := space.WriteAt(addr, o.FromUint(uint64(value)).Bytes())
	if err != nil {
		return fmt.Errorf("failed to write 0x%x to %s - %w", value, addr, err)
	}

	return nil
}

// Pointer is an encoded word.
type Pointer struct {
	raw   []byte
	value uint32
}

// Bytes returns the encoded word.
func (o Pointer) Bytes() []byte {
	return o.raw
}

// Uint returns the word's numeric value.
func (o Pointer) Uint() uint32 {
	return o.value
}

// ReadUint32 reads a little endian 32-bit word at addr.
func ReadUint32(space AddressSpace, addr Addr) (uint32, error) {
	return PointerMakerForX86_32().Read(space, addr)
}

// WriteUint32 writes a little endian 32-bit word at addr.
func WriteUint32(space AddressSpace, addr Addr, value uint32) error {
	return PointerMakerForX86_32().Write(space, addr, value)
}
