package synth

import "testing"

// sustained builds a voice that rises to full volume in two samples
// and then sustains at VolumeMax forever.
func sustained(t *testing.T, reg *TableRegistry, note int) *Voice {
	t.Helper()
	v, err := NewVoice(note, Params{SustainLevel: VolumeMax}, reg)
	if err != nil {
		t.Fatalf("NewVoice(%d): %v", note, err)
	}
	return v
}

func TestMixerSilence(t *testing.T) {
	m := NewMixer(NewEventQueue(8))
	for i := 0; i < 100; i++ {
		if s := m.NextSample(); s != 0 {
			t.Fatalf("sample %d = %d with no voices, want 0", i, s)
		}
	}
}

func TestMixerSingleVoicePreservesAmplitude(t *testing.T) {
	reg := testRegistry()
	q := NewEventQueue(8)
	m := NewMixer(q)

	v := sustained(t, reg, 60)
	q.Push(NoteEvent{Kind: NoteOn, Voice: v})

	// A reference oscillator tracks what the voice's oscillator emits.
	ref, err := newOscillator(60, reg)
	if err != nil {
		t.Fatalf("newOscillator: %v", err)
	}

	m.NextSample() // attack sample, volume 0
	ref.next()
	m.NextSample() // decay sample, volume VolumeMax
	ref.next()

	// At constant full volume a lone voice passes through unchanged.
	for i := 0; i < 500; i++ {
		want := ref.next()
		if got := m.NextSample(); got != want {
			t.Fatalf("sample %d = %d, want %d", i, got, want)
		}
	}
}

func TestMixerOverlapNeverClips(t *testing.T) {
	reg := testRegistry()
	q := NewEventQueue(8)
	m := NewMixer(q)

	for _, note := range []int{60, 64, 67} {
		q.Push(NoteEvent{Kind: NoteOn, Voice: sustained(t, reg, note)})
	}
	for i := 0; i < 20000; i++ {
		if s := m.NextSample(); s < -127 || s > 127 {
			t.Fatalf("sample %d = %d clips", i, s)
		}
	}
	if m.ActiveVoices() != 3 {
		t.Errorf("active voices = %d, want 3", m.ActiveVoices())
	}
}

func TestMixerRetriggerForksVoice(t *testing.T) {
	reg := testRegistry()
	q := NewEventQueue(8)
	m := NewMixer(q)

	first := sustained(t, reg, 60)
	q.Push(NoteEvent{Kind: NoteOn, Voice: first})
	for i := 0; i < 10; i++ {
		m.NextSample()
	}

	second := sustained(t, reg, 60)
	q.Push(NoteEvent{Kind: NoteOn, Voice: second})
	m.NextSample()
	if m.ActiveVoices() != 2 {
		t.Fatalf("active voices after retrigger = %d, want 2", m.ActiveVoices())
	}

	// NoteOff releases only the most recent voice at the pitch. The
	// released voice needs one sample per remaining release sample
	// plus one for the mixer to purge it.
	q.Push(NoteEvent{Kind: NoteOff, Voice: second})
	for i := 0; i < 100; i++ {
		m.NextSample()
	}
	if m.ActiveVoices() != 1 {
		t.Fatalf("active voices after release = %d, want 1", m.ActiveVoices())
	}

	// The survivor is the first voice, still sustaining.
	if _, _, ok := first.NextSample(); !ok {
		t.Error("original voice died with its key still down")
	}
	if _, _, ok := second.NextSample(); ok {
		t.Error("released voice still live")
	}
}

func TestMixerNoteOffIdempotent(t *testing.T) {
	reg := testRegistry()
	q := NewEventQueue(8)
	m := NewMixer(q)

	stray := sustained(t, reg, 72)
	q.Push(NoteEvent{Kind: NoteOff, Voice: stray})
	for i := 0; i < 10; i++ {
		if s := m.NextSample(); s != 0 {
			t.Fatalf("stray NoteOff disturbed output: sample %d = %d", i, s)
		}
	}
	if m.ActiveVoices() != 0 {
		t.Errorf("active voices = %d, want 0", m.ActiveVoices())
	}
}

func TestMixerNoteOffReleasesMostRecentOnly(t *testing.T) {
	reg := testRegistry()
	q := NewEventQueue(8)
	m := NewMixer(q)

	old := sustained(t, reg, 60)
	q.Push(NoteEvent{Kind: NoteOn, Voice: old})
	m.NextSample()

	recent := sustained(t, reg, 60)
	q.Push(NoteEvent{Kind: NoteOn, Voice: recent})
	q.Push(NoteEvent{Kind: NoteOff, Voice: recent})
	q.Push(NoteEvent{Kind: NoteOff, Voice: recent}) // double off: ignored
	m.NextSample()

	// Both voices still counted: the recent one is releasing, not gone.
	if m.ActiveVoices() != 2 {
		t.Fatalf("active voices = %d, want 2", m.ActiveVoices())
	}

	// Only the recent voice was released; the older one keeps playing.
	if s := recent.env.stage; s != stageRelease && s != stageOff {
		t.Errorf("recent voice stage = %v, want release or off", s)
	}
	if s := old.env.stage; s == stageRelease || s == stageOff {
		t.Errorf("older voice stage = %v, want it still held", s)
	}
}

func TestMixerBurstOverflow(t *testing.T) {
	reg := testRegistry()
	q := NewEventQueue(4)
	m := NewMixer(q)

	for i := 0; i < 10; i++ {
		q.Push(NoteEvent{Kind: NoteOn, Voice: sustained(t, reg, 40+i)})
	}
	m.NextSample()

	if q.Dropped() != 6 {
		t.Errorf("dropped = %d, want 6", q.Dropped())
	}
	if m.ActiveVoices() != 4 {
		t.Errorf("active voices = %d, want 4: the first four note-ons survive", m.ActiveVoices())
	}
}

func TestMixerFullEnvelopeShape(t *testing.T) {
	// One note through its whole lifetime: strike, hold through the
	// sustain plateau, release, fade to silence.
	reg := testRegistry() // 16 kHz
	q := NewEventQueue(8)
	m := NewMixer(q)

	v, err := NewVoice(60, Params{
		AttackMS:     10,
		DecayMS:      10,
		ReleaseMS:    10,
		SustainLevel: 200,
	}, reg)
	if err != nil {
		t.Fatalf("NewVoice: %v", err)
	}
	q.Push(NoteEvent{Kind: NoteOn, Voice: v})

	stage := 160 // samples per 10 ms at 16 kHz
	peak := func(n int) int32 {
		var p int32
		for i := 0; i < n; i++ {
			s := m.NextSample()
			if s < 0 {
				s = -s
			}
			if s > p {
				p = s
			}
		}
		return p
	}

	attackPeak := peak(stage)
	decayPeak := peak(stage)
	sustainPeak := peak(stage * 4)
	if attackPeak >= decayPeak {
		t.Errorf("attack peak %d not below decay peak %d", attackPeak, decayPeak)
	}
	if sustainPeak > decayPeak {
		t.Errorf("sustain peak %d above decay peak %d", sustainPeak, decayPeak)
	}

	q.Push(NoteEvent{Kind: NoteOff, Voice: v})
	peak(stage + 2) // release plus purge
	if m.ActiveVoices() != 0 {
		t.Fatalf("voice still live after release: %d", m.ActiveVoices())
	}
	for i := 0; i < 100; i++ {
		if s := m.NextSample(); s != 0 {
			t.Fatalf("post-release sample %d = %d, want silence", i, s)
		}
	}
}
