package iokit

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestPayloadBuilder_Endianness(t *testing.T) {
	b, err := NewPayloadBuilder().
		SetEndianness(binary.BigEndian).
		Uint32(0xc0ded00d).
		Uint32(0xc0ded00d, binary.LittleEndian).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	exp := []byte{0xc0, 0xde, 0xd0, 0x0d, 0x0d, 0xd0, 0xde, 0xc0}
	if !bytes.Equal(b, exp) {
		t.Fatalf("expected 0x%x - got 0x%x", exp, b)
	}
}

func TestPayloadBuilder_EmptyLengthPrefixed(t *testing.T) {
	pb := NewPayloadBuilder().LengthPrefixed(nil)

	if pb.Len() != 4 {
		t.Fatalf("expected 4 bytes - got %d", pb.Len())
	}

	b, err := pb.Build()
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(b, []byte{0, 0, 0, 0}) {
		t.Fatalf("expected a zero length prefix - got 0x%x", b)
	}
}
