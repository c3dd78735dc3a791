package spectrum_test

import (
	"fmt"

	"github.com/cwbudde/algo-ephys/dsp/spectrum"
)

func ExamplePower() {
	bins := []complex128{3 + 4i, 0 + 1i, -1 + 0i}
	pow := spectrum.Power(bins)
	fmt.Printf("%.1f %.1f %.1f\n", pow[0], pow[1], pow[2])
	// Output:
	// 25.0 1.0 1.0
}

func ExampleFrequencyScale() {
	f := spectrum.FrequencyScale(8, 1000, true)
	fmt.Println(f)
	// Output:
	// [0 125 250 375 500]
}
