// Package synth implements the real-time core of the synthesizer:
// oscillators, ADSR envelopes, voices, the note event queue, the
// polyphonic mixer and the chunk ring that feeds the audio device.
package synth

import (
	"fmt"
	"math"
	"strconv"
)

// noteFrequencies memoizes the frequency of every MIDI note number.
var noteFrequencies [128]float64

func init() {
	for n := range noteFrequencies {
		noteFrequencies[n] = 27.5 * math.Pow(2, float64(n-21)/12)
	}
}

// NoteFrequency returns the frequency in hertz of a MIDI note number.
// The note must be in 0-127.
func NoteFrequency(note int) float64 {
	return noteFrequencies[note]
}

// letterBaseNotes maps note letters to MIDI numbers in the octave of
// middle C. Middle C is C5 = 60 here.
var letterBaseNotes = map[byte]int{
	'C': 60,
	'D': 62,
	'E': 64,
	'F': 65,
	'G': 67,
	'A': 69,
	'B': 71,
}

// LetterToMIDI converts a note name like "C5", "A#5" or "Eb4" to a
// MIDI note number. The octave digit is relative to middle C's octave,
// 5; a name without an octave stays in that octave.
func LetterToMIDI(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty note name", ErrInvalidNote)
	}
	letter := name[0]
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	note, ok := letterBaseNotes[letter]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNote, name)
	}
	for i := 1; i < len(name); i++ {
		switch c := name[i]; {
		case c == '#':
			note++
		case c == 'b':
			note--
		case c >= '0' && c <= '9':
			octave, err := strconv.Atoi(name[i:])
			if err != nil {
				return 0, fmt.Errorf("%w: %q", ErrInvalidNote, name)
			}
			note += 12 * (octave - 5)
			if note < 0 || note > 127 {
				return 0, fmt.Errorf("%w: %q", ErrInvalidNote, name)
			}
			return note, nil
		default:
			return 0, fmt.Errorf("%w: %q", ErrInvalidNote, name)
		}
	}
	if note < 0 || note > 127 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNote, name)
	}
	return note, nil
}
