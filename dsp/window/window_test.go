package window

import (
	"math"
	"testing"
)

func TestGenerateFinite(t *testing.T) {
	for _, typ := range []Type{TypeRectangular, TypeHann, TypeHamming, TypeBlackman} {
		t.Run(Info(typ).Name, func(t *testing.T) {
			w := Generate(typ, 64)
			if len(w) != 64 {
				t.Fatalf("len=%d, want 64", len(w))
			}

			for i, v := range w {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("coefficient[%d] invalid: %v", i, v)
				}
			}
		})
	}
}

func TestPeriodicHannMatchesFFTForm(t *testing.T) {
	const n = 1024

	w := Generate(TypeHann, n, WithPeriodic())
	for i, v := range w {
		want := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/n)
		if math.Abs(v-want) > 1e-12 {
			t.Fatalf("w[%d]=%v want=%v", i, v, want)
		}
	}

	if w[0] != 0 {
		t.Fatalf("periodic Hann must start at 0, got %v", w[0])
	}

	if math.Abs(w[n/2]-1) > 1e-12 {
		t.Fatalf("periodic Hann peak at n/2 = %v, want 1", w[n/2])
	}
}

func TestPeriodicDiffersFromSymmetric(t *testing.T) {
	a := Generate(TypeHann, 16)
	b := Generate(TypeHann, 16, WithPeriodic())

	if math.Abs(a[15]) > 1e-12 {
		t.Fatalf("symmetric Hann must end at 0, got %v", a[15])
	}

	if b[15] == 0 {
		t.Fatalf("periodic Hann must not end at 0")
	}
}

func TestEnergyGain(t *testing.T) {
	w := Generate(TypeHann, 1024, WithPeriodic())

	got, err := EnergyGain(w)
	if err != nil {
		t.Fatalf("EnergyGain: %v", err)
	}

	// sum of periodic Hann squared is 3N/8.
	if math.Abs(got-3*1024.0/8) > 1e-9 {
		t.Fatalf("EnergyGain=%v want=%v", got, 3*1024.0/8)
	}

	if _, err := EnergyGain(nil); err == nil {
		t.Fatalf("expected error for empty coefficients")
	}
}

func TestDCRemoval(t *testing.T) {
	w := Generate(TypeHamming, 33, WithDCRemoval())

	sum := 0.0
	for _, v := range w {
		sum += v
	}

	if math.Abs(sum) > 1e-9 {
		t.Fatalf("mean not removed: sum=%v", sum)
	}
}

func TestApplyCoefficientsInPlace(t *testing.T) {
	buf := []float64{2, 2, 2}
	if err := ApplyCoefficientsInPlace(buf, []float64{0, 0.5, 1}); err != nil {
		t.Fatalf("ApplyCoefficientsInPlace: %v", err)
	}

	if buf[0] != 0 || buf[1] != 1 || buf[2] != 2 {
		t.Fatalf("unexpected output: %v", buf)
	}

	if err := ApplyCoefficientsInPlace(buf, []float64{1}); err == nil {
		t.Fatalf("expected length mismatch error")
	}
}

func TestValidation(t *testing.T) {
	if _, err := Hann(0); err == nil {
		t.Fatalf("expected error for zero size")
	}

	if w, err := Blackman(8); err != nil || len(w) != 8 {
		t.Fatalf("Blackman(8) = %v, %v", w, err)
	}

	if Generate(TypeHann, 0) != nil {
		t.Fatalf("Generate with zero length must return nil")
	}
}
