package memory_test

import (
	"fmt"
	"log"

	"gitlab.com/stephen-fox/gmpatch/memory"
)

func ExamplePointerMaker_FromUint() {
	pm := memory.PointerMakerForX86_32()

	pointer := pm.FromUint(0xdeadbeef)

	fmt.Printf("0x%x %x\n", pointer.Uint(), pointer.Bytes())

	// Output: 0xdeadbeef efbeadde
}

func ExampleWriteUint32() {
	sim := memory.NewSimulated()
	sim.MapOrExit(0x1000, 0x100, "rw-p", "[heap]")

	err := memory.WriteUint32(sim, 0x1010, 0xc0ded00d)
	if err != nil {
		log.Fatalln(err)
	}

	value, err := memory.ReadUint32(sim, 0x1010)
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Printf("0x%x\n", value)

	// Output: 0xc0ded00d
}
