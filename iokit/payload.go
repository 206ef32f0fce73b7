package iokit

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log"
	"math"
)

var (
	// DefaultExitFn is invoked by functions and methods ending in
	// the "OrExit" suffix when an error occurs.
	DefaultExitFn = func(err error) {
		log.Fatalln(err)
	}
)

// NewPayloadBuilder instantiates a new PayloadBuilder.
func NewPayloadBuilder() *PayloadBuilder {
	return &PayloadBuilder{}
}

// PayloadBuilder helps build the binary records that are written
// into a target's memory by implementing the "builder pattern".
//
// For methods that take endianness as an optional argument,
// the default is little endian. The default endianness can
// be overridden using SetEndianness.
//
// The first error encountered is remembered, all later calls
// become no-ops, and the error is reported by Build.
type PayloadBuilder struct {
	buf bytes.Buffer
	bo  binary.ByteOrder
	err error

	// OptLogger is an optional logger that, when non-nil,
	// receives a hexdump of the payload when Build is called.
	OptLogger *log.Logger
}

// SetEndianness sets the default endianness for the methods that take
// endianness as an optional argument.
func (o *PayloadBuilder) SetEndianness(order binary.ByteOrder) *PayloadBuilder {
	o.bo = order

	return o
}

func (o *PayloadBuilder) getEndianness(optOrder ...binary.ByteOrder) binary.ByteOrder {
	switch len(optOrder) {
	case 0:
		if o.bo == nil {
			return binary.LittleEndian
		}
		return o.bo
	case 1:
		return optOrder[0]
	default:
		panic("only one binary.ByteOrder may be specified")
	}
}

// Uint32 writes an unsigned 32-bit integer to the payload.
func (o *PayloadBuilder) Uint32(u uint32, optOrder ...binary.ByteOrder) *PayloadBuilder {
	if o.err != nil {
		return o
	}

	b := make([]byte, 4)
	o.getEndianness(optOrder...).PutUint32(b, u)
	o.buf.Write(b)

	return o
}

// LengthPrefixed writes the length of b as an unsigned 32-bit integer
// followed by b itself.
func (o *PayloadBuilder) LengthPrefixed(b []byte, optOrder ...binary.ByteOrder) *PayloadBuilder {
	if o.err != nil {
		return o
	}

	if uint64(len(b)) > math.MaxUint32 {
		o.err = fmt.Errorf("payload of %d bytes does not fit a 32-bit length prefix", len(b))
		return o
	}

	return o.Uint32(uint32(len(b)), optOrder...).Bytes(b)
}

// Bytes writes the specified []byte to the payload.
func (o *PayloadBuilder) Bytes(b []byte) *PayloadBuilder {
	if o.err != nil {
		return o
	}

	o.buf.Write(b)

	return o
}

// Byte writes the specified byte to the payload.
func (o *PayloadBuilder) Byte(b byte) *PayloadBuilder {
	if o.err != nil {
		return o
	}

	o.buf.WriteByte(b)

	return o
}

// String writes the specified string to the payload.
func (o *PayloadBuilder) String(str string) *PayloadBuilder {
	if o.err != nil {
		return o
	}

	o.buf.WriteString(str)

	return o
}

// Len returns the number of bytes written so far.
func (o *PayloadBuilder) Len() int {
	return o.buf.Len()
}

// Build returns the payload as a []byte.
func (o *PayloadBuilder) Build() ([]byte, error) {
	if o.err != nil {
		return nil, fmt.Errorf("failed to build payload - %w", o.err)
	}

	if o.OptLogger != nil {
		o.OptLogger.Printf("payload (%d bytes):\n%s", o.buf.Len(), hex.Dump(o.buf.Bytes()))
	}

	return o.buf.Bytes(), nil
}

// BuildOrExit calls Build. If an error occurs, DefaultExitFn is invoked.
func (o *PayloadBuilder) BuildOrExit() []byte {
	b, err := o.Build()
	if err != nil {
		DefaultExitFn(err)
	}

	return b
}
