package textcodec

import (
	"fmt"
	"log"
)

func ExampleEncode() {
	encoded, err := Encode("Hi!")
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Printf("0x%x\n", encoded)

	// Output: 0x0300000048692100
}
