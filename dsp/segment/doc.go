// Package segment slices a long time series into fixed-size sample windows.
//
// A [Generator] yields half-open sample ranges [first, last) in order from
// sample 0. Consecutive windows start nswin-overlap samples apart and the
// final window is truncated at the end of the series, so it may be shorter
// than nswin. The generator holds no per-iteration state and can be ranged
// over any number of times.
package segment
