package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/icco/polysynth/internal/audio"
	"github.com/icco/polysynth/internal/synth"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Play the synthesizer from the keyboard",
	Long: `Play the synthesizer interactively from the terminal keyboard.

The home row is laid out like a piano around middle C: "a" is A4, "d"
is middle C, and so on up to ";" one octave higher. Terminals have no
key-release events, so a key toggles its note: press to strike, press
again to release. Space releases everything.`,
	Run: runKeys,
}

func init() {
	rootCmd.AddCommand(keysCmd)
}

// keyNoteNames maps terminal keys to note names, mirroring two
// interleaved piano rows: the letter row is the white keys, the row
// above it the black keys.
var keyNoteNames = []struct {
	key  string
	name string
}{
	{"a", "A4"},
	{"w", "A#4"},
	{"s", "B4"},
	{"d", "C5"},
	{"r", "C#5"},
	{"f", "D5"},
	{"t", "D#5"},
	{"g", "E5"},
	{"h", "F5"},
	{"u", "F#5"},
	{"j", "G5"},
	{"i", "G#5"},
	{"k", "A5"},
	{"o", "A#5"},
	{"l", "B5"},
	{";", "C6"},
}

func runKeys(cmd *cobra.Command, args []string) {
	engine, err := audio.NewEngine(engineConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := engine.Start(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer engine.Stop()

	p := tea.NewProgram(newKeysModel(engine), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// meterTickMsg drives the level meter animation.
type meterTickMsg time.Time

const meterFPS = 30

var (
	keysTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	keysSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888"))

	keysNoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	keysMeterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))

	keysHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// keysModel is the TUI state for the interactive keyboard.
type keysModel struct {
	engine  *audio.Engine
	keymap  map[string]int          // terminal key -> MIDI note
	names   map[int]string          // MIDI note -> display name
	held    map[int]*synth.Voice    // live voice per pitch
	message string

	spring   harmonica.Spring
	meterPos float64
	meterVel float64
}

func newKeysModel(engine *audio.Engine) *keysModel {
	m := &keysModel{
		engine: engine,
		keymap: make(map[string]int),
		names:  make(map[int]string),
		held:   make(map[int]*synth.Voice),
		spring: harmonica.NewSpring(harmonica.FPS(meterFPS), 8.0, 0.6),
	}
	for _, kn := range keyNoteNames {
		note, err := synth.LetterToMIDI(kn.name)
		if err != nil {
			continue
		}
		m.keymap[kn.key] = note
		m.names[note] = kn.name
	}
	return m
}

func meterTick() tea.Cmd {
	return tea.Tick(time.Second/meterFPS, func(t time.Time) tea.Msg {
		return meterTickMsg(t)
	})
}

func (m *keysModel) Init() tea.Cmd {
	return meterTick()
}

func (m *keysModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case meterTickMsg:
		m.meterPos, m.meterVel = m.spring.Update(m.meterPos, m.meterVel, m.engine.Level())
		return m, meterTick()

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "ctrl+c", "esc", "q":
			m.releaseAll()
			return m, tea.Quit
		case " ":
			m.releaseAll()
			m.message = "all notes released"
			return m, nil
		default:
			if note, ok := m.keymap[key]; ok {
				m.toggle(note)
			}
			return m, nil
		}
	}
	return m, nil
}

func (m *keysModel) toggle(note int) {
	if v, ok := m.held[note]; ok {
		m.engine.NoteOff(v)
		delete(m.held, note)
		m.message = fmt.Sprintf("note off %s", m.names[note])
		return
	}
	v, err := m.engine.MakeVoice(note, synth.Params{})
	if err != nil {
		m.message = fmt.Sprintf("cannot play %s: %v", m.names[note], err)
		return
	}
	if !m.engine.NoteOn(v) {
		m.message = "event queue full, note dropped"
		return
	}
	m.held[note] = v
	m.message = fmt.Sprintf("note on %s", m.names[note])
}

func (m *keysModel) releaseAll() {
	for note, v := range m.held {
		m.engine.NoteOff(v)
		delete(m.held, note)
	}
}

func (m *keysModel) View() string {
	var b strings.Builder

	b.WriteString(keysTitleStyle.Render("polysynth keys") + "\n\n")

	cfg := m.engine.Config()
	b.WriteString(keysSubtitleStyle.Render(
		fmt.Sprintf("%d Hz · %d-bit · %d channel(s)", cfg.SampleRate, cfg.BitDepth, cfg.NumChannels)) + "\n\n")

	b.WriteString(renderPiano(m.held) + "\n\n")

	// Held notes, lowest pitch first.
	notes := make([]int, 0, len(m.held))
	for note := range m.held {
		notes = append(notes, note)
	}
	sort.Ints(notes)
	if len(notes) == 0 {
		b.WriteString(keysSubtitleStyle.Render("Holding: ") + "(nothing)\n")
	} else {
		parts := make([]string, len(notes))
		for i, note := range notes {
			parts[i] = m.names[note]
		}
		b.WriteString(keysSubtitleStyle.Render("Holding: ") + keysNoteStyle.Render(strings.Join(parts, " ")) + "\n")
	}

	b.WriteString(keysSubtitleStyle.Render("Level:   ") + renderMeter(m.meterPos) + "\n")
	b.WriteString(keysSubtitleStyle.Render(
		fmt.Sprintf("Dropped events: %d · underruns: %d", m.engine.Overflows(), m.engine.Underruns())) + "\n")

	if m.message != "" {
		b.WriteString("\n" + m.message + "\n")
	}

	b.WriteString("\n" + keysHelpStyle.Render("a-; strike/release notes · space: release all · q: quit"))
	return b.String()
}

const meterWidth = 32

func renderMeter(level float64) string {
	if level < 0 {
		level = 0
	} else if level > 1 {
		level = 1
	}
	filled := int(level * meterWidth)
	return keysMeterStyle.Render(strings.Repeat("█", filled)) + strings.Repeat("░", meterWidth-filled)
}

// renderPiano draws the mapped octave-and-a-bit as two key rows with
// held notes highlighted.
func renderPiano(held map[int]*synth.Voice) string {
	whiteStyle := lipgloss.NewStyle().Background(lipgloss.Color("#FFFFFF")).Foreground(lipgloss.Color("#000000"))
	blackStyle := lipgloss.NewStyle().Background(lipgloss.Color("#000000")).Foreground(lipgloss.Color("#FFFFFF"))
	activeWhite := lipgloss.NewStyle().Background(lipgloss.Color("#00FF00")).Foreground(lipgloss.Color("#000000"))
	activeBlack := lipgloss.NewStyle().Background(lipgloss.Color("#00AA00")).Foreground(lipgloss.Color("#FFFFFF"))

	var top, bottom strings.Builder
	for _, kn := range keyNoteNames {
		note, err := synth.LetterToMIDI(kn.name)
		if err != nil {
			continue
		}
		_, active := held[note]
		if strings.Contains(kn.name, "#") {
			if active {
				top.WriteString(activeBlack.Render("█"))
			} else {
				top.WriteString(blackStyle.Render("█"))
			}
			top.WriteString(" ")
		} else {
			if active {
				bottom.WriteString(activeWhite.Render("█"))
			} else {
				bottom.WriteString(whiteStyle.Render("█"))
			}
			bottom.WriteString(" ")
			// keep the black row aligned over the white keys
			if !hasSharpAbove(kn.name) {
				top.WriteString("  ")
			}
		}
	}
	return top.String() + "\n" + bottom.String()
}

// hasSharpAbove reports whether a white note name has a black key
// between it and the next white key.
func hasSharpAbove(name string) bool {
	switch name[0] {
	case 'E', 'B':
		return false
	}
	return true
}
