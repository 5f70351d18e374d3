package synth

import "errors"

var (
	// ErrNoteTooHigh means the note's frequency leaves fewer than two
	// samples per cycle at the configured sample rate.
	ErrNoteTooHigh = errors.New("note too high for sample rate")

	// ErrInvalidNote means the MIDI note number is outside 0-127.
	ErrInvalidNote = errors.New("midi note out of range")

	// ErrInvalidEnvelope means an envelope parameter is out of range.
	ErrInvalidEnvelope = errors.New("invalid envelope parameters")

	// ErrBadConfig wraps all configuration validation failures.
	ErrBadConfig = errors.New("invalid audio configuration")
)
