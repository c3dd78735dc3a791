// Package buffer provides reusable channel-major sample blocks and a pool
// for them. A Block keeps all channels in one contiguous slab so large
// multi-channel windows are allocated once and reused across recordings.
package buffer
