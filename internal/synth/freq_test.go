package synth

import (
	"errors"
	"math"
	"testing"
)

func TestNoteFrequency(t *testing.T) {
	tests := []struct {
		note int
		want float64
	}{
		{21, 27.5},  // A1
		{33, 55},    // A2
		{57, 220},   // A4
		{69, 440},   // A5, concert pitch
		{81, 880},   // A6
	}
	for _, tt := range tests {
		got := NoteFrequency(tt.note)
		if math.Abs(got-tt.want) > 0.1 {
			t.Errorf("NoteFrequency(%d) = %.3f, want %.1f", tt.note, got, tt.want)
		}
	}
}

func TestNoteFrequencyMemoized(t *testing.T) {
	for n := 0; n < 128; n++ {
		want := 27.5 * math.Pow(2, float64(n-21)/12)
		if got := NoteFrequency(n); got != want {
			t.Errorf("NoteFrequency(%d) = %v, want %v", n, got, want)
		}
	}
}

func TestLetterToMIDI(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"C5", 60}, // middle C
		{"C6", 72},
		{"C4", 48},
		{"A5", 69},
		{"A#5", 70},
		{"Bb5", 70},
		{"B5", 71},
		{"C", 60},
		{"c5", 60},
		{"D#5", 63},
		{"Eb5", 63},
		{"G5", 67},
	}
	for _, tt := range tests {
		got, err := LetterToMIDI(tt.name)
		if err != nil {
			t.Errorf("LetterToMIDI(%q) returned error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("LetterToMIDI(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestLetterToMIDIConcertPitch(t *testing.T) {
	note, err := LetterToMIDI("A5")
	if err != nil {
		t.Fatalf("LetterToMIDI(A5) returned error: %v", err)
	}
	if got := NoteFrequency(note); math.Abs(got-440) > 0.1 {
		t.Errorf("frequency of A above middle C = %.3f, want 440", got)
	}
}

func TestLetterToMIDIInvalid(t *testing.T) {
	for _, name := range []string{"", "H5", "C99", "Cx", "5"} {
		if _, err := LetterToMIDI(name); !errors.Is(err, ErrInvalidNote) {
			t.Errorf("LetterToMIDI(%q) error = %v, want ErrInvalidNote", name, err)
		}
	}
}
