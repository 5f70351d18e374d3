package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/icco/polysynth/internal/synth"
)

var (
	flagRate     int
	flagDepth    int
	flagChannels int
	flagFrames   int
	flagBufferMS int
	flagAttack   int
	flagDecay    int
	flagRelease  int
	flagSustain  int
)

var rootCmd = &cobra.Command{
	Use:   "polysynth",
	Short: "A polyphonic software synthesizer",
	Long: `polysynth is a real-time polyphonic synthesizer for the terminal.

It turns key events into a stream of PCM samples: each pressed key
becomes a voice with its own sine oscillator and ADSR envelope, the
voices are mixed under real-time deadlines and played through the
system audio output.`,
}

func init() {
	defaults := synth.DefaultConfig()
	pf := rootCmd.PersistentFlags()
	pf.IntVar(&flagRate, "rate", defaults.SampleRate, "sample rate in Hz (16000, 32000, 48000, 96000 or 192000)")
	pf.IntVar(&flagDepth, "depth", defaults.BitDepth, "sample bit depth (8 or 16)")
	pf.IntVar(&flagChannels, "channels", defaults.NumChannels, "output channels (1 or 2)")
	pf.IntVar(&flagFrames, "frames", defaults.FramesPerCallback, "frames per device callback")
	pf.IntVar(&flagBufferMS, "buffer", defaults.BufferMS, "sample buffer length in milliseconds")
	pf.IntVar(&flagAttack, "attack", defaults.DefaultAttackMS, "default attack in milliseconds")
	pf.IntVar(&flagDecay, "decay", defaults.DefaultDecayMS, "default decay in milliseconds")
	pf.IntVar(&flagRelease, "release", defaults.DefaultReleaseMS, "default release in milliseconds")
	pf.IntVar(&flagSustain, "sustain", int(defaults.DefaultSustainLevel), "default sustain level (0-256)")
}

// engineConfig builds the engine configuration from the root flags.
func engineConfig() synth.Config {
	cfg := synth.DefaultConfig()
	cfg.SampleRate = flagRate
	cfg.BitDepth = flagDepth
	cfg.NumChannels = flagChannels
	cfg.FramesPerCallback = flagFrames
	cfg.BufferMS = flagBufferMS
	cfg.DefaultAttackMS = flagAttack
	cfg.DefaultDecayMS = flagDecay
	cfg.DefaultReleaseMS = flagRelease
	cfg.DefaultSustainLevel = int32(flagSustain)
	return cfg
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
