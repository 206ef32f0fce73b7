// Package conv converts between the textual and numeric forms of
// addresses and address ranges used on the command line and in
// environment variables.
package conv

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gitlab.com/stephen-fox/gmpatch/memory"
)

// ParseAddress parses an address. Hexadecimal values must be prefixed
// with "0x". Underscores are permitted between digits.
func ParseAddress(str string) (memory.Addr, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return 0, errors.New("address is empty")
	}

	u, err := strconv.ParseUint(str, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse address %q - %w", str, err)
	}

	return memory.Addr(u), nil
}

// ParseSize parses a size in bytes. It accepts the same syntax as
// ParseAddress, plus the "k" and "m" suffixes for kibibytes and
// mebibytes respectively.
func ParseSize(str string) (int, error) {
	str = strings.TrimSpace(str)

	multiplier := uint64(1)
	switch {
	case strings.HasSuffix(str, "k"), strings.HasSuffix(str, "K"):
		multiplier = 1 << 10
		str = str[:len(str)-1]
	case strings.HasSuffix(str, "m"), strings.HasSuffix(str, "M"):
		multiplier = 1 << 20
		str = str[:len(str)-1]
	}

	if str == "" {
		return 0, errors.New("size is empty")
	}

	u, err := strconv.ParseUint(str, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("failed to parse size %q - %w", str, err)
	}

	u *= multiplier
	if u == 0 || u > 1<<31-1 {
		return 0, fmt.Errorf("size %q is out of range", str)
	}

	return int(u), nil
}

// ParseRange parses a "<start>:<size>" string such as "0x7f0000:1m".
func ParseRange(str string) (memory.Addr, int, error) {
	startStr, sizeStr, found := strings.Cut(str, ":")
	if !found {
		return 0, 0, fmt.Errorf("range %q is not in the format <start>:<size>", str)
	}

	start, err := ParseAddress(startStr)
	if err != nil {
		return 0, 0, err
	}

	size, err := ParseSize(sizeStr)
	if err != nil {
		return 0, 0, err
	}

	if uint64(start)+uint64(size) < uint64(start) {
		return 0, 0, fmt.Errorf("range %q overflows the address space", str)
	}

	return start, size, nil
}

// FormatRange is the inverse of ParseRange.
func FormatRange(start memory.Addr, size int) string {
	return fmt.Sprintf("%s:0x%x", start, size)
}
