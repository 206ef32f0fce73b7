// Package textcodec encodes and decodes the target runtime's
// length-prefixed, NUL terminated strings, and the escaped
// one-record-per-line form used for bulk text export.
package textcodec

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gitlab.com/stephen-fox/gmpatch/iokit"
	"gitlab.com/stephen-fox/gmpatch/memory"
)

const (
	// PrefixSize is the size of the little endian length prefix
	// that precedes the text bytes.
	PrefixSize = 4

	// MaxDecodeLen is the maximum number of bytes Decode scans
	// for a NUL terminator.
	MaxDecodeLen = 1 << 20

	// RecordSeparator separates records in an exported text file.
	RecordSeparator = "\r\n"

	decodeChunkSize = 256
)

// ErrUnterminated is returned by Decode when no NUL terminator is
// found within MaxDecodeLen bytes.
var ErrUnterminated = errors.New("string is not NUL terminated")

// Encode lays out text as the runtime expects it: the little endian
// 32-bit length of the UTF-8 bytes, the bytes themselves, and a
// trailing NUL that the length does not count.
func Encode(text string) ([]byte, error) {
	return iokit.NewPayloadBuilder().
		LengthPrefixed([]byte(text)).
		Byte(0).
		Build()
}

// Decode reads the string whose length prefix is at addr. The text
// starts at addr+4 and ends at the first NUL byte. The length prefix
// is only used as a read-size hint. Invalid UTF-8 sequences are
// replaced with U+FFFD.
func Decode(space memory.AddressSpace, addr memory.Addr) (string, error) {
	start := addr + PrefixSize

	hint := decodeChunkSize
	prefix, err := memory.ReadUint32(space, addr)
	if err == nil && prefix < MaxDecodeLen {
		hint = int(prefix) + 1
	}

	var buf []byte
	for len(buf) < MaxDecodeLen {
		chunk, err := readChunk(space, start+memory.Addr(len(buf)), hint)
		if err != nil {
			return "", fmt.Errorf("failed to read string at %s - %w", addr, err)
		}

		if i := bytes.IndexByte(chunk, 0); i >= 0 {
			return ToValidText(append(buf, chunk[:i]...)), nil
		}

		buf = append(buf, chunk...)
		hint = decodeChunkSize
	}

	return "", fmt.Errorf("failed to decode string at %s - %w", addr, ErrUnterminated)
}

// readChunk reads up to n bytes at addr. A read crossing the end of
// a mapping is retried one byte at a time so that a terminator just
// before the boundary is still found.
func readChunk(space memory.AddressSpace, addr memory.Addr, n int) ([]byte, error) {
	b, err := space.ReadAt(addr, n)
	if err == nil {
		return b, nil
	}

	var out []byte
	for i := 0; i < n; i++ {
		one, oneErr := space.ReadAt(addr+memory.Addr(i), 1)
		if oneErr != nil {
			if len(out) == 0 {
				return nil, oneErr
			}
			return out, nil
		}

		out = append(out, one[0])
		if one[0] == 0 {
			break
		}
	}

	return out, nil
}

// ToValidText converts b to a string, replacing invalid UTF-8
// sequences with U+FFFD.
func ToValidText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}

// EscapeRecord escapes line breaks so that text fits on a single
// line of an export file.
func EscapeRecord(text string) string {
	return strings.NewReplacer("\n", `\n`, "\r", `\r`).Replace(text)
}

// UnescapeRecord is the inverse of EscapeRecord.
func UnescapeRecord(record string) string {
	return strings.NewReplacer(`\r`, "\r", `\n`, "\n").Replace(record)
}

// JoinRecords escapes each text and terminates it with RecordSeparator,
// so an empty last text still occupies a line.
func JoinRecords(texts []string) string {
	var b strings.Builder
	for _, text := range texts {
		b.WriteString(EscapeRecord(text))
		b.WriteString(RecordSeparator)
	}

	return b.String()
}

// SplitRecords splits an export file into unescaped texts. Both
// "\r\n" and "\n" line endings are accepted. Exactly one trailing
// line ending is dropped, and empty contents hold no records.
func SplitRecords(contents string) []string {
	if contents == "" {
		return nil
	}

	contents = strings.TrimSuffix(contents, "\n")
	contents = strings.TrimSuffix(contents, "\r")

	lines := strings.Split(contents, "\n")
	texts := make([]string, len(lines))
	for i, line := range lines {
		texts[i] = UnescapeRecord(strings.TrimSuffix(line, "\r"))
	}

	return texts
}
