package memory

import "fmt"

// Region is a mapped range of the target's address space.
// End is exclusive.
type Region struct {
	Start Addr
	End   Addr

	// Perms is the permission string in /proc/<pid>/maps
	// notation (e.g., "rw-p"). It may be empty if the platform
	// does not report permissions.
	Perms string

	// Name is the backing file or pseudo-path of the region,
	// if any.
	Name string
}

// Size returns the number of bytes spanned by the region.
func (o Region) Size() uint64 {
	if o.End < o.Start {
		return 0
	}

	return uint64(o.End - o.Start)
}

// Contains reports whether the n bytes at addr lie within the region.
func (o Region) Contains(addr Addr, n int) bool {
	return addr >= o.Start && uint64(addr)+uint64(n) <= uint64(o.End)
}

// Readable reports whether the region permits reads. Regions with
// unknown permissions are treated as readable.
func (o Region) Readable() bool {
	return len(o.Perms) == 0 || o.Perms[0] == 'r'
}

// Writable reports whether the region permits writes.
func (o Region) Writable() bool {
	return len(o.Perms) > 1 && o.Perms[1] == 'w'
}

func (o Region) String() string {
	return fmt.Sprintf("%s-%s %s %s", o.Start, o.End, o.Perms, o.Name)
}
