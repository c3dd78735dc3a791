package spectrum

import (
	"math"
	"testing"
)

func TestPower(t *testing.T) {
	bins := []complex128{3 + 4i, -1 - 1i, 0}

	pow := Power(bins)
	if len(pow) != len(bins) {
		t.Fatalf("Power length mismatch: got=%d want=%d", len(pow), len(bins))
	}

	if math.Abs(pow[0]-25) > 1e-12 || math.Abs(pow[1]-2) > 1e-12 || pow[2] != 0 {
		t.Fatalf("unexpected Power output: %v", pow)
	}

	if Power(nil) != nil {
		t.Fatalf("Power(nil) must be nil")
	}
}

func TestFrequencyScale(t *testing.T) {
	one := FrequencyScale(1024, 2500, true)
	if len(one) != 513 {
		t.Fatalf("one-sided length=%d want 513", len(one))
	}
	if one[0] != 0 || math.Abs(one[512]-1250) > 1e-9 {
		t.Fatalf("unexpected endpoints: %v %v", one[0], one[512])
	}

	two := FrequencyScale(4, 1000, false)
	want := []float64{0, 250, -500, -250}
	for i := range want {
		if math.Abs(two[i]-want[i]) > 1e-12 {
			t.Fatalf("two-sided[%d]=%v want %v", i, two[i], want[i])
		}
	}

	if FrequencyScale(0, 1000, true) != nil {
		t.Fatalf("expected nil for nfft=0")
	}
}
