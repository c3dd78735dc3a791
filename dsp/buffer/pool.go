package buffer

import "sync"

// Pool provides sync.Pool-based Block reuse to reduce GC pressure when
// several recordings are processed in a row.
type Pool struct {
	pool sync.Pool
}

// NewPool returns a Pool ready for use.
func NewPool() *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any {
				return &Block{}
			},
		},
	}
}

// Get returns a Block of the requested shape. Its contents are
// unspecified; callers that need zeros call Zero. Return it via Put.
func (p *Pool) Get(channels, width int) *Block {
	b := p.pool.Get().(*Block)
	b.Resize(channels, width)
	return b
}

// Put returns a Block to the pool for reuse.
// The caller must not use the block after calling Put.
func (p *Pool) Put(b *Block) {
	if b == nil {
		return
	}
	p.pool.Put(b)
}
