package biquad

import "testing"

func TestBank_MatchesContinuousSection(t *testing.T) {
	c := Coefficients{B0: 0.9, B1: -0.9, A1: -0.8}
	input := []float64{1, 1.5, 0.5, -0.5, 2, 3, 1, 0, -1, 0.25}

	ref := NewSection(c)
	ref.PrimeDC(input[0])
	want := append([]float64(nil), input...)
	ref.ProcessBlock(want)

	bank := NewBank(c, 2)
	got := make([]float64, 0, len(input))
	for _, split := range [][2]int{{0, 3}, {3, 7}, {7, 10}} {
		block := [][]float64{
			append([]float64(nil), input[split[0]:split[1]]...),
			make([]float64, split[1]-split[0]),
		}
		if err := bank.ProcessBlocks(block); err != nil {
			t.Fatalf("ProcessBlocks: %v", err)
		}
		got = append(got, block[0]...)
	}

	for i := range want {
		if !almostEqual(got[i], want[i], eps) {
			t.Fatalf("sample %d: bank=%v continuous=%v", i, got[i], want[i])
		}
	}
}

func TestBank_ChannelMismatch(t *testing.T) {
	bank := NewBank(Coefficients{B0: 1}, 3)
	if bank.Channels() != 3 {
		t.Fatalf("Channels()=%d want 3", bank.Channels())
	}
	if err := bank.ProcessBlocks(make([][]float64, 2)); err == nil {
		t.Fatalf("expected channel mismatch error")
	}
}

func TestBank_ResetRePrimes(t *testing.T) {
	c := Coefficients{B0: 0.9, B1: -0.9, A1: -0.8}
	bank := NewBank(c, 1)

	first := [][]float64{{4, 4, 4}}
	if err := bank.ProcessBlocks(first); err != nil {
		t.Fatal(err)
	}
	bank.Reset()

	second := [][]float64{{-7, -7}}
	if err := bank.ProcessBlocks(second); err != nil {
		t.Fatal(err)
	}
	for i, v := range second[0] {
		if !almostEqual(v, 0, 1e-12) {
			t.Fatalf("sample %d after reset: %v, want 0", i, v)
		}
	}
}
