package synth

import "fmt"

// Config holds the engine settings. All fields are fixed at startup;
// nothing here is safe to change while the engine runs.
type Config struct {
	SampleRate        int // frames per second
	BitDepth          int // 8, 16 or 32 bits per sample
	NumChannels       int // 1 (mono) or 2 (stereo duplication)
	FramesPerCallback int // device chunk size in frames
	BufferMS          int // jitter absorption between producer and device

	EventQueueCapacity int

	// Envelope defaults applied by the note factory.
	DefaultAttackMS     int
	DefaultDecayMS      int
	DefaultReleaseMS    int
	DefaultSustainLevel int32
}

// DefaultConfig returns the settings used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		SampleRate:          192000,
		BitDepth:            8,
		NumChannels:         1,
		FramesPerCallback:   512,
		BufferMS:            50,
		EventQueueCapacity:  127,
		DefaultAttackMS:     100,
		DefaultDecayMS:      100,
		DefaultReleaseMS:    100,
		DefaultSustainLevel: 200,
	}
}

var validSampleRates = map[int]bool{
	16000:  true,
	32000:  true,
	48000:  true,
	96000:  true,
	192000: true,
}

// Validate reports the first configuration problem found. All returned
// errors wrap ErrBadConfig.
func (c Config) Validate() error {
	if !validSampleRates[c.SampleRate] {
		return fmt.Errorf("%w: sample rate %d", ErrBadConfig, c.SampleRate)
	}
	switch c.BitDepth {
	case 8, 16, 32:
	default:
		return fmt.Errorf("%w: bit depth %d", ErrBadConfig, c.BitDepth)
	}
	if c.NumChannels != 1 && c.NumChannels != 2 {
		return fmt.Errorf("%w: %d channels", ErrBadConfig, c.NumChannels)
	}
	if c.FramesPerCallback < 1 {
		return fmt.Errorf("%w: frames per callback %d", ErrBadConfig, c.FramesPerCallback)
	}
	if c.BufferMS < 0 {
		return fmt.Errorf("%w: buffer %dms", ErrBadConfig, c.BufferMS)
	}
	if c.EventQueueCapacity < 1 {
		return fmt.Errorf("%w: event queue capacity %d", ErrBadConfig, c.EventQueueCapacity)
	}
	if c.DefaultAttackMS < 0 || c.DefaultDecayMS < 0 || c.DefaultReleaseMS < 0 {
		return fmt.Errorf("%w: negative envelope default", ErrBadConfig)
	}
	if c.DefaultSustainLevel < 0 || c.DefaultSustainLevel > VolumeMax {
		return fmt.Errorf("%w: sustain level %d", ErrBadConfig, c.DefaultSustainLevel)
	}
	return nil
}

// AmpMax returns the peak signed amplitude for the configured bit depth.
func (c Config) AmpMax() int32 {
	switch c.BitDepth {
	case 16:
		return 32767
	case 32:
		return 2147483647
	default:
		return 127
	}
}

// ByteWidth returns bytes per sample.
func (c Config) ByteWidth() int { return c.BitDepth / 8 }

// FrameBytes returns bytes per frame (sample * channels).
func (c Config) FrameBytes() int { return c.ByteWidth() * c.NumChannels }

// ChunkBytes returns the size of one ring chunk.
func (c Config) ChunkBytes() int { return c.FramesPerCallback * c.FrameBytes() }

// RingCapacity returns how many chunks the sample ring holds, derived
// from the latency budget. Always at least one.
func (c Config) RingCapacity() int {
	bufferSamples := c.BufferMS * c.SampleRate / 1000
	chunks := bufferSamples / c.FramesPerCallback
	if chunks < 1 {
		chunks = 1
	}
	return chunks
}

// Params are the per-voice settings handed to the note factory.
type Params struct {
	AttackMS     int
	DecayMS      int
	ReleaseMS    int
	SustainLevel int32
	Velocity     int32 // 0-255; zero means full velocity
}

// DefaultParams returns the configured envelope defaults.
func (c Config) DefaultParams() Params {
	return Params{
		AttackMS:     c.DefaultAttackMS,
		DecayMS:      c.DefaultDecayMS,
		ReleaseMS:    c.DefaultReleaseMS,
		SustainLevel: c.DefaultSustainLevel,
	}
}
