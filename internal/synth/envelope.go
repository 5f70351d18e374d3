package synth

// VolumeMax is the integer representation of full envelope volume.
// Envelope output is always in [0, VolumeMax].
const VolumeMax = 256

type envelopeStage int

const (
	stageOff envelopeStage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

// envelope is the sample-accurate ADSR state machine. Each stage lasts
// an exact number of samples fixed at construction; transitions happen
// when the in-stage counter reaches that length. All arithmetic is
// integer: volumes are scaled by VolumeMax.
type envelope struct {
	attackLen  int // samples, >= 1
	decayLen   int
	releaseLen int
	sustain    int32

	stage       envelopeStage
	pos         int   // sample counter within the current stage
	last        int32 // volume emitted by the previous tick
	releaseFrom int32
}

// stage lengths are clamped to one sample so a zero-millisecond stage
// still passes through the machine.
func msToSamples(ms, sampleRate int) int {
	n := ms * sampleRate / 1000
	if n < 1 {
		n = 1
	}
	return n
}

func newEnvelope(p Params, sampleRate int) envelope {
	return envelope{
		attackLen:  msToSamples(p.AttackMS, sampleRate),
		decayLen:   msToSamples(p.DecayMS, sampleRate),
		releaseLen: msToSamples(p.ReleaseMS, sampleRate),
		sustain:    p.SustainLevel,
	}
}

// keyDown starts the attack. Only meaningful from OFF; a live envelope
// ignores it.
func (e *envelope) keyDown() {
	if e.stage == stageOff {
		e.stage = stageAttack
		e.pos = 0
	}
}

// keyUp forces the release, ramping down from the volume currently
// being emitted rather than the configured sustain level. Ignored when
// already releasing or off.
func (e *envelope) keyUp() {
	switch e.stage {
	case stageOff, stageRelease:
		return
	}
	e.releaseFrom = e.last
	e.stage = stageRelease
	e.pos = 0
}

// tick returns the volume for the current sample and then advances the
// machine. The second return is true on the tick whose emission
// completed the release; the caller must not tick again after that.
func (e *envelope) tick() (int32, bool) {
	var v int32
	switch e.stage {
	case stageAttack:
		v = int32(VolumeMax * e.pos / e.attackLen)
	case stageDecay:
		v = VolumeMax - int32((VolumeMax-int(e.sustain))*e.pos/e.decayLen)
	case stageSustain:
		v = e.sustain
	case stageRelease:
		v = e.releaseFrom - int32(int(e.releaseFrom)*e.pos/e.releaseLen)
	case stageOff:
		return 0, true
	}
	e.last = v
	e.pos++

	off := false
	switch {
	case e.stage == stageAttack && e.pos == e.attackLen:
		e.stage = stageDecay
		e.pos = 0
	case e.stage == stageDecay && e.pos == e.decayLen:
		e.stage = stageSustain
		e.pos = 0
	case e.stage == stageRelease && e.pos == e.releaseLen:
		e.stage = stageOff
		e.pos = 0
		off = true
	}
	return v, off
}
