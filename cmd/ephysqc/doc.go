// Command ephysqc computes quality-control maps of Neuropixel SpikeGLX
// recordings and writes them as ALF arrays.
//
// Usage:
//
//	ephysqc [--config path] [--log-level level] <command> [flags] [args]
//
// Examples:
//
//	ephysqc rmsmap run_g0_t0.imec0.lf.bin
//	ephysqc rmsmap --spectra=false --out alf run_g0_t0.imec0.ap.bin
//	ephysqc lfpcorr --max-duration 300 run_g0_t0.imec0.lf.bin
//	ephysqc extract ks2/ raw_ephys_data/ alf/
//	ephysqc info --seconds 2 run_g0_t0.imec0.ap.bin
//	ephysqc plotdata alf/ > records.json
//	ephysqc align alf/probe00
//	ephysqc config init
package main
