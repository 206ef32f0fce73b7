package memory

import (
	"fmt"
	"sort"
)

// NewAnchorTable creates a new instance of an *AnchorTable with
// the specified initial build. Refer to AnchorTable's documentation
// for more information.
func NewAnchorTable(initialBuild string) *AnchorTable {
	return &AnchorTable{
		currentBuild:          initialBuild,
		buildToAnchorsToAddrs: make(map[string]map[string]Addr),
	}
}

// AnchorTable organizes the hard-coded anchor addresses of a target
// program for each of its known builds. An anchor marks a structure
// whose location is fixed for one build of the target (e.g., the
// header of a resource table), and usually moves between builds.
//
// Register every build's anchors once, select the build that matches
// the running target, and take an immutable Anchors snapshot:
//
//	anchors, err := NewAnchorTable("v1.0").
//		AddAnchorInBuild("strings", 0x01b62c39, "v1.0").
//		AddAnchorInBuild("strings", 0x01b63000, "v1.1").
//		Select("v1.1")
type AnchorTable struct {
	currentBuild          string
	buildToAnchorsToAddrs map[string]map[string]Addr
}

// SetBuild sets the current build to the specified value.
func (o *AnchorTable) SetBuild(build string) *AnchorTable {
	o.currentBuild = build
	return o
}

// AddAnchorInBuild adds or sets the address of an anchor for
// the specified build.
func (o *AnchorTable) AddAnchorInBuild(anchorName string, address Addr, build string) *AnchorTable {
	anchorsToAddrs := o.buildToAnchorsToAddrs[build]
	if anchorsToAddrs == nil {
		anchorsToAddrs = make(map[string]Addr)
	}

	anchorsToAddrs[anchorName] = address
	o.buildToAnchorsToAddrs[build] = anchorsToAddrs

	return o
}

// CurrentBuild returns the current build.
func (o *AnchorTable) CurrentBuild() string {
	return o.currentBuild
}

// Builds returns the names of every registered build, sorted.
func (o *AnchorTable) Builds() []string {
	builds := make([]string, 0, len(o.buildToAnchorsToAddrs))
	for build := range o.buildToAnchorsToAddrs {
		builds = append(builds, build)
	}
	sort.Strings(builds)
	return builds
}

// Address returns the address of the specified anchor for the
// currently selected build.
func (o *AnchorTable) Address(anchorName string) (Addr, error) {
	anchorsToAddrs, hasIt := o.buildToAnchorsToAddrs[o.currentBuild]
	if !hasIt {
		return 0, fmt.Errorf("the current build ('%s') is not in the anchor table",
			o.currentBuild)
	}

	addr, hasIt := anchorsToAddrs[anchorName]
	if !hasIt {
		return 0, fmt.Errorf("failed to find the anchor '%s' in the table for '%s'",
			anchorName, o.currentBuild)
	}

	return addr, nil
}

// AddressOrExit returns the address of the specified anchor for the
// currently selected build.
//
// If the build or the anchor do not exist, then DefaultExitFn is invoked.
func (o *AnchorTable) AddressOrExit(anchorName string) uint64 {
	addr, err := o.Address(anchorName)
	if err != nil {
		DefaultExitFn(err)
	}

	return uint64(addr)
}

// Select sets the current build and returns a snapshot of its anchors.
// Later changes to the table do not affect the snapshot.
func (o *AnchorTable) Select(build string) (Anchors, error) {
	o.SetBuild(build)

	anchorsToAddrs, hasIt := o.buildToAnchorsToAddrs[build]
	if !hasIt {
		return Anchors{}, fmt.Errorf("unknown build '%s' - known builds: %v",
			build, o.Builds())
	}

	snapshot := make(map[string]Addr, len(anchorsToAddrs))
	for name, addr := range anchorsToAddrs {
		snapshot[name] = addr
	}

	return Anchors{build: build, addrs: snapshot}, nil
}

// Anchors is an immutable set of anchor addresses for one build.
type Anchors struct {
	build string
	addrs map[string]Addr
}

// Build returns the name of the build the anchors belong to.
func (o Anchors) Build() string {
	return o.build
}

// Lookup returns the address of the named anchor.
func (o Anchors) Lookup(anchorName string) (Addr, bool) {
	addr, hasIt := o.addrs[anchorName]
	return addr, hasIt
}
