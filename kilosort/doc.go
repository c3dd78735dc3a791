// Package kilosort converts Kilosort 2 output folders into ALF objects.
//
// The conversion reads the numpy arrays Kilosort leaves next to params.py
// and writes spikes, clusters and channels objects:
//
//	spikes.times, spikes.clusters, spikes.amps, spikes.depths
//	clusters.depths, clusters.amps, clusters.peakToTrough, clusters.channels
//	channels.localCoordinates, channels.rawInd
package kilosort
