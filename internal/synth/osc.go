package synth

import (
	"math"
	"sync"
)

// TableRegistry caches one-cycle waveform tables per MIDI note for a
// fixed sample rate and peak amplitude. Tables are immutable once
// built and shared between every voice at the same pitch, so the trig
// work happens once per pitch rather than once per sample.
type TableRegistry struct {
	sampleRate int
	ampMax     int32

	mu     sync.Mutex
	tables [128][]int32
}

// NewTableRegistry returns a registry for the given sample rate and
// peak amplitude.
func NewTableRegistry(sampleRate int, ampMax int32) *TableRegistry {
	return &TableRegistry{sampleRate: sampleRate, ampMax: ampMax}
}

// table returns the sine table for a note, building it on first use.
func (r *TableRegistry) table(note int) ([]int32, error) {
	if note < 0 || note > 127 {
		return nil, ErrInvalidNote
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.tables[note]; t != nil {
		return t, nil
	}

	samplesPerCycle := int(float64(r.sampleRate) / NoteFrequency(note))
	if samplesPerCycle < 2 {
		return nil, ErrNoteTooHigh
	}

	t := make([]int32, samplesPerCycle)
	for i := range t {
		phase := float64(i) / float64(samplesPerCycle)
		t[i] = int32(math.Round(math.Sin(phase*2*math.Pi) * float64(r.ampMax)))
	}
	r.tables[note] = t
	return t, nil
}

// Oscillator cycles a precomputed one-cycle table forever. The cursor
// only moves forward; there is no reset.
type Oscillator struct {
	table  []int32
	cursor int
}

func newOscillator(note int, reg *TableRegistry) (Oscillator, error) {
	t, err := reg.table(note)
	if err != nil {
		return Oscillator{}, err
	}
	return Oscillator{table: t}, nil
}

// next returns the next signed amplitude.
func (o *Oscillator) next() int32 {
	s := o.table[o.cursor]
	o.cursor++
	if o.cursor == len(o.table) {
		o.cursor = 0
	}
	return s
}

// Period returns the table length in samples.
func (o *Oscillator) Period() int { return len(o.table) }
