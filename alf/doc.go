// Package alf reads and writes ALF flat-file arrays: one NumPy .npy file
// per attribute, named object.attribute.npy, grouped into objects that are
// saved together.
//
// Arrays are held as float64 in row-major order and converted to the
// requested dtype on write.
package alf
