package process

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gitlab.com/stephen-fox/gmpatch/memory"
)

// ParseMaps parses the contents of a /proc/<pid>/maps file.
// Lines that cannot be parsed are skipped.
func ParseMaps(r io.Reader) ([]memory.Region, error) {
	var regions []memory.Region

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		region, ok := ParseMapsLine(scanner.Text())
		if !ok {
			continue
		}

		regions = append(regions, region)
	}

	err := scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to read maps - %w", err)
	}

	return regions, nil
}

// ParseMapsLine parses a single line of a /proc/<pid>/maps file:
//
//	00400000-0040b000 r-xp 00000000 08:02 173521 /usr/bin/dbus-daemon
func ParseMapsLine(line string) (memory.Region, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return memory.Region{}, false
	}

	startStr, endStr, found := strings.Cut(fields[0], "-")
	if !found {
		return memory.Region{}, false
	}

	start, err := strconv.ParseUint(startStr, 16, 64)
	if err != nil {
		return memory.Region{}, false
	}

	end, err := strconv.ParseUint(endStr, 16, 64)
	if err != nil || end < start {
		return memory.Region{}, false
	}

	region := memory.Region{
		Start: memory.Addr(start),
		End:   memory.Addr(end),
		Perms: fields[1],
	}

	if len(fields) >= 6 {
		region.Name = strings.Join(fields[5:], " ")
	}

	return region, true
}
