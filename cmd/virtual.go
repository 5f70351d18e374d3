package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/icco/polysynth/internal/audio"
	"github.com/icco/polysynth/internal/synth"
)

var deviceName string

var virtualCmd = &cobra.Command{
	Use:   "virtual",
	Short: "Create a virtual MIDI device playing through the synthesizer",
	Long: `Create a virtual MIDI input device backed by the synthesizer engine.

The device shows up as a MIDI output destination in other music
software. Notes received on any channel become voices in the engine;
note velocity scales the voice amplitude.

Example:
  polysynth virtual --name "My Synth"
`,
	Run: runVirtual,
}

func init() {
	virtualCmd.Flags().StringVarP(&deviceName, "name", "n", "Polysynth Virtual", "Name for the virtual MIDI device")
	rootCmd.AddCommand(virtualCmd)
}

func runVirtual(cmd *cobra.Command, args []string) {
	m := newVirtualModel(deviceName)
	p := tea.NewProgram(m, tea.WithAltScreen())
	m.program = p // so the MIDI callback can send messages

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

const maxMessageHistory = 12

// virtualModel is the TUI state for the virtual MIDI device.
type virtualModel struct {
	deviceName     string
	engine         *audio.Engine
	driver         *rtmididrv.Driver
	inPort         drivers.In
	stopFunc       func()
	activeNotes    map[string]string // channel:note -> note name
	messageHistory []string
	messageCount   int
	err            error
	program        *tea.Program
}

// midiEventMsg updates the TUI after the MIDI callback handled an event.
type midiEventMsg struct {
	line   string
	key    string // channel:note, empty for non-note messages
	noteOn bool
	name   string
	allOff bool
}

type virtualInitMsg struct {
	engine *audio.Engine
	driver *rtmididrv.Driver
	inPort drivers.In
	err    error
}

func newVirtualModel(name string) *virtualModel {
	return &virtualModel{
		deviceName:     name,
		activeNotes:    make(map[string]string),
		messageHistory: make([]string, 0, maxMessageHistory),
	}
}

func (m *virtualModel) Init() tea.Cmd {
	return m.initDevices
}

func (m *virtualModel) initDevices() tea.Msg {
	engine, err := audio.NewEngine(engineConfig())
	if err != nil {
		return virtualInitMsg{err: fmt.Errorf("failed to initialize audio: %w", err)}
	}
	if err := engine.Start(); err != nil {
		return virtualInitMsg{err: fmt.Errorf("failed to start audio: %w", err)}
	}

	driver, err := rtmididrv.New()
	if err != nil {
		engine.Stop()
		return virtualInitMsg{err: fmt.Errorf("failed to initialize MIDI driver: %w", err)}
	}

	port, err := driver.OpenVirtualIn(m.deviceName)
	if err != nil {
		driver.Close()
		engine.Stop()
		return virtualInitMsg{err: fmt.Errorf("failed to create virtual MIDI port: %w", err)}
	}

	return virtualInitMsg{engine: engine, driver: driver, inPort: port}
}

func (m *virtualModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case virtualInitMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.engine = msg.engine
		m.driver = msg.driver
		m.inPort = msg.inPort
		return m, m.listenMIDI

	case midiEventMsg:
		m.messageCount++
		switch {
		case msg.allOff:
			m.activeNotes = make(map[string]string)
		case msg.key != "" && msg.noteOn:
			m.activeNotes[msg.key] = msg.name
		case msg.key != "":
			delete(m.activeNotes, msg.key)
		}
		if msg.line != "" {
			m.messageHistory = append([]string{msg.line}, m.messageHistory...)
			if len(m.messageHistory) > maxMessageHistory {
				m.messageHistory = m.messageHistory[:maxMessageHistory]
			}
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, m.cleanup
		}
	}
	return m, nil
}

// listenMIDI wires the virtual port to the engine. The callback runs
// on the MIDI driver's thread: it owns the channel:note -> voice map
// and only touches the engine through the event queue.
func (m *virtualModel) listenMIDI() tea.Msg {
	if m.inPort == nil {
		return nil
	}

	voices := make(map[uint16]*synth.Voice)
	voiceKey := func(channel, note uint8) uint16 {
		return uint16(channel)<<8 | uint16(note)
	}

	noteOff := func(channel, note uint8) {
		key := voiceKey(channel, note)
		if v, ok := voices[key]; ok {
			m.engine.NoteOff(v)
			delete(voices, key)
		}
	}

	stop, err := m.inPort.Listen(func(data []byte, timestamp int32) {
		if len(data) < 3 {
			return
		}
		status := data[0]
		channel := status & 0x0F
		note, velocity := data[1], data[2]

		switch status & 0xF0 {
		case 0x90: // note on; velocity zero means note off
			if velocity == 0 {
				noteOff(channel, note)
				m.send(midiEventMsg{
					line: fmt.Sprintf("Note Off: Ch%d %-4s", channel+1, noteName(note)),
					key:  fmt.Sprintf("%d:%d", channel, note),
				})
				return
			}
			// MIDI velocity is 7-bit; voice velocity is 8-bit.
			v, err := m.engine.MakeVoice(int(note), synth.Params{Velocity: int32(velocity) * 2})
			if err != nil {
				m.send(midiEventMsg{line: fmt.Sprintf("Rejected: Ch%d %-4s (%v)", channel+1, noteName(note), err)})
				return
			}
			m.engine.NoteOn(v)
			voices[voiceKey(channel, note)] = v
			m.send(midiEventMsg{
				line:   fmt.Sprintf("Note On:  Ch%d %-4s vel:%d", channel+1, noteName(note), velocity),
				key:    fmt.Sprintf("%d:%d", channel, note),
				noteOn: true,
				name:   noteName(note),
			})

		case 0x80: // note off
			noteOff(channel, note)
			m.send(midiEventMsg{
				line: fmt.Sprintf("Note Off: Ch%d %-4s", channel+1, noteName(note)),
				key:  fmt.Sprintf("%d:%d", channel, note),
			})

		case 0xB0: // control change; 123 = all notes off
			if note == 123 {
				for key, v := range voices {
					m.engine.NoteOff(v)
					delete(voices, key)
				}
				m.send(midiEventMsg{line: fmt.Sprintf("All Notes Off: Ch%d", channel+1), allOff: true})
				return
			}
			m.send(midiEventMsg{line: fmt.Sprintf("CC:       Ch%d ctrl:%d val:%d", channel+1, note, velocity)})
		}
	}, drivers.ListenConfig{})

	if err != nil {
		m.err = fmt.Errorf("failed to listen to MIDI port: %w", err)
		return nil
	}
	m.stopFunc = stop
	return nil
}

func (m *virtualModel) send(msg midiEventMsg) {
	if m.program != nil {
		m.program.Send(msg)
	}
}

func (m *virtualModel) cleanup() tea.Msg {
	if m.stopFunc != nil {
		m.stopFunc()
	}
	if m.inPort != nil {
		m.inPort.Close()
	}
	if m.driver != nil {
		m.driver.Close()
	}
	if m.engine != nil {
		m.engine.Stop()
	}
	return tea.Quit()
}

var (
	virtualTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#7D56F4")).
				Padding(0, 1)

	virtualSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888"))

	virtualStatusStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#00FF00")).
				Bold(true)

	virtualErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF0000")).
				Bold(true)

	virtualNoteStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFD700"))

	virtualLogStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))

	virtualHelpStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#626262"))
)

func (m *virtualModel) View() string {
	var b strings.Builder

	b.WriteString(virtualTitleStyle.Render("polysynth virtual MIDI") + "\n\n")

	if m.err != nil {
		b.WriteString(virtualErrorStyle.Render("Error: "+m.err.Error()) + "\n\n")
		b.WriteString(virtualHelpStyle.Render("Press Ctrl+C to quit"))
		return b.String()
	}

	b.WriteString(virtualSubtitleStyle.Render("Device Name: ") + m.deviceName + "\n")
	if m.inPort != nil {
		b.WriteString(virtualSubtitleStyle.Render("MIDI Port:   ") + virtualStatusStyle.Render(m.inPort.String()) + "\n\n")
		b.WriteString(virtualStatusStyle.Render("● Listening for MIDI") + "\n\n")
	} else {
		b.WriteString(virtualSubtitleStyle.Render("MIDI Port:   ") + "Initializing...\n\n")
	}

	b.WriteString(virtualSubtitleStyle.Render("Active Notes:") + "\n")
	if len(m.activeNotes) == 0 {
		b.WriteString("  (no notes playing)\n")
	} else {
		names := make([]string, 0, len(m.activeNotes))
		for _, name := range m.activeNotes {
			names = append(names, name)
		}
		b.WriteString("  " + virtualNoteStyle.Render(strings.Join(names, " ")) + "\n")
	}

	if m.engine != nil {
		b.WriteString("\n" + virtualSubtitleStyle.Render(
			fmt.Sprintf("Dropped events: %d · underruns: %d", m.engine.Overflows(), m.engine.Underruns())) + "\n")
	}

	b.WriteString("\n" + virtualSubtitleStyle.Render(fmt.Sprintf("Message Log: [%d total]", m.messageCount)) + "\n")
	if len(m.messageHistory) == 0 {
		b.WriteString("  " + virtualLogStyle.Render("(waiting for input)") + "\n")
	} else {
		for i, line := range m.messageHistory {
			prefix := "  "
			if i == 0 {
				prefix = "▶ "
			}
			b.WriteString("  " + virtualLogStyle.Render(prefix+line) + "\n")
		}
	}

	b.WriteString("\n" + virtualHelpStyle.Render("Ctrl+C: quit"))
	return b.String()
}

// noteName formats a MIDI note number with middle C as C5.
func noteName(note uint8) string {
	names := []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	return fmt.Sprintf("%s%d", names[note%12], int(note)/12)
}
