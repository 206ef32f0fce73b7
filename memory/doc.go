// Package memory provides functionality for reading and writing the
// memory of a target process.
//
// The target is never accessed through raw pointers. Instead, its
// mapped memory is modelled by the AddressSpace interface, and
// memory inside the target is reserved through the Allocator
// interface. The process package implements both for live processes,
// while Simulated and Arena implement them in terms of ordinary
// byte slices, which allows code built on top of this package to be
// tested against synthetic memory layouts.
//
// Anchors
//
// Programs that were not built with cooperation in mind rarely
// advertise where their data lives. An AnchorTable records the fixed
// addresses of known structures for each build of a target, and
// Select produces an immutable snapshot for the build in use.
//
// Words
//
// PointerMaker encodes and decodes pointer-sized words for a target
// platform. ReadUint32 and WriteUint32 are shortcuts for the 32-bit
// little endian words used by the runners this module targets.
package memory
