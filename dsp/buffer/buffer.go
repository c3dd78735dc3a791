package buffer

// Block is a channel-major block of float64 samples. Every row is a view
// into one backing slab of channels*width values.
type Block struct {
	slab  []float64
	rows  [][]float64
	views [][]float64
	width int
}

// New returns a zero-filled Block of the given shape.
func New(channels, width int) *Block {
	b := &Block{}
	b.Resize(channels, width)
	return b
}

// Channels returns the number of rows.
func (b *Block) Channels() int {
	return len(b.rows)
}

// Width returns the number of samples per row.
func (b *Block) Width() int {
	return b.width
}

// Cap returns the capacity of the backing slab.
func (b *Block) Cap() int {
	return cap(b.slab)
}

// Rows returns the full-width rows.
func (b *Block) Rows() [][]float64 {
	return b.rows
}

// Head returns every row truncated to its first n samples. The returned
// slice is reused by the next Head call; n is clamped to [0, Width].
func (b *Block) Head(n int) [][]float64 {
	n = max(0, min(n, b.width))
	for c, r := range b.rows {
		b.views[c] = r[:n]
	}
	return b.views
}

// Resize sets the shape, reusing the slab when it is large enough.
// Contents after a resize are unspecified.
func (b *Block) Resize(channels, width int) {
	channels, width = max(channels, 0), max(width, 0)
	n := channels * width
	if n <= cap(b.slab) {
		b.slab = b.slab[:n]
	} else {
		b.slab = make([]float64, n)
	}
	if cap(b.rows) >= channels {
		b.rows, b.views = b.rows[:channels], b.views[:channels]
	} else {
		b.rows, b.views = make([][]float64, channels), make([][]float64, channels)
	}
	for c := range b.rows {
		b.rows[c] = b.slab[c*width : (c+1)*width : (c+1)*width]
	}
	b.width = width
}

// Zero sets all samples to 0.
func (b *Block) Zero() {
	clear(b.slab)
}
