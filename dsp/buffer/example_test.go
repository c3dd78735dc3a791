package buffer_test

import (
	"fmt"

	"github.com/cwbudde/algo-ephys/dsp/buffer"
)

func ExampleBlock() {
	b := buffer.New(2, 4)
	copy(b.Rows()[0], []float64{1, 2, 3, 4})
	copy(b.Rows()[1], []float64{5, 6, 7, 8})

	fmt.Println(b.Head(2))
	fmt.Println(b.Channels(), b.Width(), b.Cap())

	// Output:
	// [[1 2] [5 6]]
	// 2 4 8
}
