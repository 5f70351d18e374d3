package synth

// Mixer owns the live voice set and turns note events into a single
// sample stream. Everything here runs on the producer goroutine; the
// event queue is the only way in.
type Mixer struct {
	queue   *EventQueue
	voices  map[*Voice]struct{}
	byPitch map[int]*Voice // most recent live voice per pitch
	dead    []*Voice       // scratch, purged at the start of each sample
}

// NewMixer returns a mixer draining the given queue.
func NewMixer(queue *EventQueue) *Mixer {
	return &Mixer{
		queue:   queue,
		voices:  make(map[*Voice]struct{}),
		byPitch: make(map[int]*Voice),
	}
}

// ActiveVoices returns how many voices are currently live.
func (m *Mixer) ActiveVoices() int { return len(m.voices) }

// NextSample produces one signed output sample in [-ampMax, ampMax].
// Silence is zero; packing adds the midpoint bias for unsigned wire
// formats.
//
// The combine rule weights each amplitude by its envelope volume and
// scales by the loudest voice: a single voice passes through at full
// amplitude, while coinciding voices attenuate each other instead of
// clipping. |amp| <= ampMax and volMax <= volSum keep the result in
// range by construction.
func (m *Mixer) NextSample() int32 {
	for {
		ev, ok := m.queue.Pop()
		if !ok {
			break
		}
		switch ev.Kind {
		case NoteOn:
			ev.Voice.keyDown()
			m.voices[ev.Voice] = struct{}{}
			m.byPitch[ev.Voice.note] = ev.Voice
		case NoteOff:
			// Only the most recent voice at the pitch is released;
			// an unknown pitch is ignored.
			if v, ok := m.byPitch[ev.Voice.note]; ok {
				v.keyUp()
				delete(m.byPitch, ev.Voice.note)
			}
		}
	}

	for _, v := range m.dead {
		delete(m.voices, v)
		if m.byPitch[v.note] == v {
			delete(m.byPitch, v.note)
		}
	}
	m.dead = m.dead[:0]

	var ampSum, volSum, volMax int64
	for v := range m.voices {
		amp, vol, ok := v.NextSample()
		if !ok {
			m.dead = append(m.dead, v)
			continue
		}
		ampSum += int64(amp) * int64(vol)
		volSum += int64(vol)
		if int64(vol) > volMax {
			volMax = int64(vol)
		}
	}

	if volSum == 0 {
		return 0
	}
	return int32(ampSum * volMax / (volSum * VolumeMax))
}
