package resource

import (
	"fmt"
	"log"
)

func ExampleKnownAnchors() {
	anchors, err := KnownAnchors().Select(BuildDFC279c)
	if err != nil {
		log.Fatalln(err)
	}

	for _, name := range []string{AnchorAudio, AnchorStrings, AnchorGameID} {
		addr, _ := anchors.Lookup(name)
		fmt.Println(name, addr)
	}

	// Output:
	// audio 0x290ac95
	// strings 0x1b62c39
	// game_id 0xa4e5e0
}

func ExampleOffsetCorrection() {
	// Two slots at 0x100c and 0x1010. The first holds 0x2000.
	correction := OffsetCorrection(0x100c, 0x2000, 2)

	fmt.Printf("correction: 0x%x\n", correction)
	fmt.Printf("entry 0: 0x%x\n", 0x2000+correction)

	// Output:
	// correction: 0xfffff014
	// entry 0: 0x1014
}
