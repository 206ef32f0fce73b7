// Package resource locates the resource tables of a running target
// and hot-swaps the resources they refer to.
//
// The target stores each table as an array of 32-bit slots holding
// addresses relative to a per-table correction. Tables are found from
// fixed anchor addresses (see KnownAnchors), or by scanning mapped
// regions for a marker (see ScanExternalTables). The runtime also
// keeps heap-side copies of some pointers, which are found by
// LocateSecondaryPointers.
//
// An Index owns every swap buffer it creates and is the only code
// that writes to table slots.
package resource
