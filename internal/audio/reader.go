package audio

import (
	"sync/atomic"

	"github.com/icco/polysynth/internal/synth"
)

// Reader feeds the device player from the chunk ring. It runs on the
// audio callback path, so it never blocks, never allocates and never
// computes samples: on an empty ring it fills the rest of the request
// with silence and counts the underrun.
type Reader struct {
	ring      *synth.ChunkRing
	silence   byte
	rem       []byte // unread tail of the current chunk
	underruns atomic.Uint64
}

// NewReader returns a reader draining the given ring.
func NewReader(ring *synth.ChunkRing, silence byte) *Reader {
	return &Reader{ring: ring, silence: silence}
}

// Underruns returns how often a read found the ring empty.
func (r *Reader) Underruns() uint64 { return r.underruns.Load() }

// Read implements io.Reader for the device player. It always satisfies
// the full request.
func (r *Reader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.rem) == 0 {
			chunk, ok := r.ring.TryPop()
			if !ok {
				r.underruns.Add(1)
				for i := n; i < len(p); i++ {
					p[i] = r.silence
				}
				return len(p), nil
			}
			r.rem = chunk
		}
		c := copy(p[n:], r.rem)
		n += c
		r.rem = r.rem[c:]
	}
	return n, nil
}
