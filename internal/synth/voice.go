package synth

import (
	"fmt"
	"sync/atomic"
)

// voiceGen hands out generation ids so repeated presses of the same
// key produce distinct voices.
var voiceGen atomic.Uint64

// Voice is one struck key from press through silence: an oscillator
// bound to an envelope. It is created on the control goroutine and
// owned exclusively by the mixer goroutine afterwards.
type Voice struct {
	note     int
	gen      uint64
	velocity int32 // 1-255, scales amplitude independently of the envelope

	osc  Oscillator
	env  envelope
	done bool
}

// NewVoice builds a voice for a MIDI note. The oscillator table comes
// from the registry; envelope parameters are validated here. A zero
// Velocity means full velocity.
func NewVoice(note int, p Params, reg *TableRegistry) (*Voice, error) {
	if p.AttackMS < 0 || p.DecayMS < 0 || p.ReleaseMS < 0 {
		return nil, fmt.Errorf("%w: negative stage duration", ErrInvalidEnvelope)
	}
	if p.SustainLevel < 0 || p.SustainLevel > VolumeMax {
		return nil, fmt.Errorf("%w: sustain level %d", ErrInvalidEnvelope, p.SustainLevel)
	}
	if p.Velocity < 0 || p.Velocity > 255 {
		return nil, fmt.Errorf("%w: velocity %d", ErrInvalidEnvelope, p.Velocity)
	}
	if p.Velocity == 0 {
		p.Velocity = 255
	}

	osc, err := newOscillator(note, reg)
	if err != nil {
		return nil, err
	}
	return &Voice{
		note:     note,
		gen:      voiceGen.Add(1),
		velocity: p.Velocity,
		osc:      osc,
		env:      newEnvelope(p, reg.sampleRate),
	}, nil
}

// MIDINote returns the pitch identity.
func (v *Voice) MIDINote() int { return v.note }

// Generation returns the voice's unique generation id.
func (v *Voice) Generation() uint64 { return v.gen }

func (v *Voice) keyDown() { v.env.keyDown() }
func (v *Voice) keyUp()   { v.env.keyUp() }

// NextSample returns the next (amplitude, volume) pair. ok is false
// once the voice has faded to silence; the pair in which the envelope
// finished its release is still delivered with ok true.
func (v *Voice) NextSample() (amp, vol int32, ok bool) {
	if v.done {
		return 0, 0, false
	}
	amp = v.osc.next()
	vol, off := v.env.tick()
	if off {
		v.done = true
	}
	if v.velocity != 255 {
		amp = int32(int64(amp) * int64(v.velocity) / 255)
	}
	return amp, vol, true
}
