// Package gmpatch provides functionality for resolving and hot-patching
// resource tables inside the memory of a running GameMaker runner.
//
// APIs are separated into subpackages, and documented accordingly.
// The resource package contains the table resolvers and the entry
// lifecycle, the memory and process packages provide access to the
// target's address space, and the engine package ties them together.
//
// For scripting convenience, "OrExit" functions and methods are provided.
// Any errors encountered by these functions are treated as fatal. In such
// cases, an exit handler function is invoked.
package gmpatch
