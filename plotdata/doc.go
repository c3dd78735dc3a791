// Package plotdata derives the records a probe alignment view renders:
// spike scatters, firing-rate and correlation images, depth profiles and
// per-bank probe maps.
//
// Each plot kind is its own type implementing Record. Builders are
// methods on a Session, which holds everything loaded from one ALF
// directory; nothing is read from package state.
package plotdata
