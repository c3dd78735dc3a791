package biquad

import "fmt"

// Bank holds one Section per channel, all sharing the same coefficients.
// State persists across ProcessBlocks calls so consecutive blocks of a
// long multichannel series are filtered as one continuous signal.
type Bank struct {
	coeffs   Coefficients
	sections []Section
	primed   bool
}

// NewBank returns a Bank of channels sections with zero state.
func NewBank(c Coefficients, channels int) *Bank {
	if channels < 0 {
		channels = 0
	}
	b := &Bank{
		coeffs:   c,
		sections: make([]Section, channels),
	}
	for i := range b.sections {
		b.sections[i].Coefficients = c
	}
	return b
}

// Channels returns the number of channels.
func (b *Bank) Channels() int { return len(b.sections) }

// ProcessBlocks filters each channel of a channel-major block in place.
// On the first call every section is primed with its channel's first
// sample so a DC offset does not produce a start-up transient.
func (b *Bank) ProcessBlocks(block [][]float64) error {
	if len(block) != len(b.sections) {
		return fmt.Errorf("biquad: block has %d channels, bank has %d", len(block), len(b.sections))
	}
	if !b.primed {
		for i, ch := range block {
			if len(ch) > 0 {
				b.sections[i].PrimeDC(ch[0])
			}
		}
		b.primed = true
	}
	for i, ch := range block {
		b.sections[i].ProcessBlock(ch)
	}
	return nil
}

// Reset clears all channel states; the next ProcessBlocks call primes again.
func (b *Bank) Reset() {
	for i := range b.sections {
		b.sections[i].Reset()
	}
	b.primed = false
}
