// Package gainmap implements the gain-map core of an HDR/SDR image codec
// support library: Apply (base + gain map + metadata + target headroom ->
// tone-mapped rendition) and Compute (base + alternate rendition -> gain map
// + metadata), the two inverse operations a gain map represents.
//
// The core is single-threaded and synchronous: every exported function is a
// pure transform over caller-owned buffers, allocates only transient scratch
// that it releases on every exit path, and performs no I/O.
package gainmap
