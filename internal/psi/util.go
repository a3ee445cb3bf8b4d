package psi

import "github.com/icza/bitio"

// TryReadFull reads len(p) bytes from r into p, recording any error on
// r.TryError the way the rest of this package's TryRead* calls do, so
// callers can defer error checking to the end of a section's read.
func TryReadFull(r *bitio.CountReader, p []byte) {
	for i := range p {
		p[i] = r.TryReadByte()
		if r.TryError != nil {
			return
		}
	}
}
