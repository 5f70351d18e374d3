// Package audio binds the synth core to the system audio output.
package audio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"

	"github.com/icco/polysynth/internal/synth"
)

// Engine owns the whole sample pipeline: the note event queue, the
// mixer, the producer goroutine that packs chunks, the chunk ring and
// the oto player that drains it. Lifecycle is New -> Start -> Stop.
type Engine struct {
	cfg    synth.Config
	reg    *synth.TableRegistry
	queue  *synth.EventQueue
	mixer  *synth.Mixer
	ring   *synth.ChunkRing
	reader *Reader

	otoCtx *oto.Context
	player *oto.Player

	stop    chan struct{}
	wg      sync.WaitGroup
	started bool

	peak atomic.Int32 // loudest |sample| in the last produced chunk
}

// NewEngine validates the configuration and assembles the pipeline.
// No goroutines run and no device is opened until Start.
func NewEngine(cfg synth.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BitDepth == 32 {
		// oto has no 32-bit integer stream format.
		return nil, fmt.Errorf("%w: 32-bit output not supported by the audio device", synth.ErrBadConfig)
	}

	queue := synth.NewEventQueue(cfg.EventQueueCapacity)
	ring := synth.NewChunkRing(cfg.RingCapacity())
	return &Engine{
		cfg:    cfg,
		reg:    synth.NewTableRegistry(cfg.SampleRate, cfg.AmpMax()),
		queue:  queue,
		mixer:  synth.NewMixer(queue),
		ring:   ring,
		reader: NewReader(ring, synth.SilenceByte(cfg.BitDepth)),
		stop:   make(chan struct{}),
	}, nil
}

// Config returns the engine's settings.
func (e *Engine) Config() synth.Config { return e.cfg }

// MakeVoice is the note factory. Zero-valued envelope fields in p keep
// the engine defaults. Runs on the control goroutine: the oscillator
// table allocation happens here, never on the audio path.
func (e *Engine) MakeVoice(note int, p synth.Params) (*synth.Voice, error) {
	d := e.cfg.DefaultParams()
	if p.AttackMS == 0 {
		p.AttackMS = d.AttackMS
	}
	if p.DecayMS == 0 {
		p.DecayMS = d.DecayMS
	}
	if p.ReleaseMS == 0 {
		p.ReleaseMS = d.ReleaseMS
	}
	if p.SustainLevel == 0 {
		p.SustainLevel = d.SustainLevel
	}
	return synth.NewVoice(note, p, e.reg)
}

// NoteOn hands a voice to the mixer. Returns false if the event queue
// was full and the event was dropped.
func (e *Engine) NoteOn(v *synth.Voice) bool {
	return e.queue.Push(synth.NoteEvent{Kind: synth.NoteOn, Voice: v})
}

// NoteOff releases the most recent voice at the handle's pitch.
func (e *Engine) NoteOff(v *synth.Voice) bool {
	return e.queue.Push(synth.NoteEvent{Kind: synth.NoteOff, Voice: v})
}

// Overflows returns the count of events dropped on a full queue.
func (e *Engine) Overflows() uint64 { return e.queue.Dropped() }

// Underruns returns how often the device found the ring empty.
func (e *Engine) Underruns() uint64 { return e.reader.Underruns() }

// Level returns the peak output level of the last produced chunk as a
// fraction of full scale.
func (e *Engine) Level() float64 {
	return float64(e.peak.Load()) / float64(e.cfg.AmpMax())
}

// Start opens the audio device and begins producing samples.
func (e *Engine) Start() error {
	if e.started {
		return nil
	}

	var format oto.Format
	switch e.cfg.BitDepth {
	case 16:
		format = oto.FormatSignedInt16LE
	default:
		format = oto.FormatUnsignedInt8
	}
	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   e.cfg.SampleRate,
		ChannelCount: e.cfg.NumChannels,
		Format:       format,
	})
	if err != nil {
		return fmt.Errorf("opening audio device: %w", err)
	}
	<-ready

	e.otoCtx = otoCtx
	e.player = otoCtx.NewPlayer(e.reader)
	e.player.SetBufferSize(e.cfg.ChunkBytes())

	e.wg.Add(1)
	go e.produce()
	e.player.Play()
	e.started = true
	return nil
}

// produce is the producer goroutine: it pulls one chunk's worth of
// samples from the mixer, packs them and pushes the chunk into the
// ring, blocking on backpressure. Exits when Stop closes the channel.
func (e *Engine) produce() {
	defer e.wg.Done()
	samples := make([]int32, e.cfg.FramesPerCallback)
	for {
		select {
		case <-e.stop:
			return
		default:
		}
		var peak int32
		for i := range samples {
			s := e.mixer.NextSample()
			samples[i] = s
			if s < 0 {
				s = -s
			}
			if s > peak {
				peak = s
			}
		}
		e.peak.Store(peak)
		chunk := make([]byte, e.cfg.ChunkBytes())
		synth.PackSamples(chunk, samples, e.cfg.BitDepth, e.cfg.NumChannels)
		if !e.ring.Push(e.stop, chunk) {
			return
		}
	}
}

// Stop halts the producer and pauses the device player; chunks still in
// the ring are not played. Voices mid-release are abandoned.
func (e *Engine) Stop() {
	select {
	case <-e.stop:
		return
	default:
	}
	close(e.stop)
	e.wg.Wait()
	if e.player != nil {
		e.player.Pause()
	}
}
