// Package ui implements the terminal UI for the notification speaker.
package ui

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/sahilm/fuzzy"

	"github.com/tridung778/noti-fin/internal/payments"
	"github.com/tridung778/noti-fin/speaker"
)

const (
	statusMessageTimeout = 3 * time.Second
	refreshInterval      = 200 * time.Millisecond
	opTimeout            = 10 * time.Second
)

type tickMsg time.Time

type statusExpiredMsg struct{ id int }

// Model is the Bubble Tea model for the speaker UI.
type Model struct {
	session *speaker.Session
	logger  *log.Logger
	rng     *rand.Rand

	devices []speaker.Device
	cursor  int

	filterInput textinput.Model
	filtering   bool

	spin spinner.Model
	busy bool

	status   string
	statusID int

	width  int
	height int
}

// NewModel creates the UI model around a running session.
func NewModel(session *speaker.Session, logger *log.Logger) Model {
	if logger == nil {
		logger = log.Default()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "filter devices"
	ti.Prompt = "/ "
	ti.CharLimit = 40

	return Model{
		session:     session,
		logger:      logger.WithPrefix("ui"),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		devices:     session.Devices(),
		spin:        sp,
		filterInput: ti,
	}
}

// Init starts the refresh loop and an initial scan.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, tick(), m.scanCmd())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case statusExpiredMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
		return m, nil

	case speaker.DevicesUpdatedMsg:
		m.devices = msg.Devices
		m.busy = false
		if m.cursor >= len(m.visibleDevices()) {
			m.cursor = 0
		}
		return m.setStatus(fmt.Sprintf("Found %d devices", len(msg.Devices)))

	case speaker.ConnectedMsg:
		m.devices = m.session.Devices()
		m.busy = false
		label := msg.Device.Name
		if msg.Device.Synthesized {
			label += " (placeholder)"
		}
		return m.setStatus("Connected to " + label)

	case speaker.DisconnectedMsg:
		m.devices = m.session.Devices()
		return m.setStatus("Disconnected")

	case speaker.SpokeMsg:
		m.busy = false
		return m.setStatus("Speaking: " + msg.Text)

	case speaker.PromptMsg:
		return m.setStatus(msg.Prompt.Message)

	case speaker.SessionErrorMsg:
		m.busy = false
		return m.setStatus("Error: " + msg.Err.Error())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		switch msg.String() {
		case "esc":
			m.filtering = false
			m.filterInput.SetValue("")
			m.cursor = 0
			return m, nil
		case "enter":
			m.filtering = false
			return m, nil
		default:
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			m.cursor = 0
			return m, cmd
		}
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.visibleDevices())-1 {
			m.cursor++
		}
		return m, nil

	case "/":
		m.filtering = true
		m.filterInput.Focus()
		return m, textinput.Blink

	case "s":
		m.busy = true
		model, cmd := m.setStatus("Scanning…")
		return model, tea.Batch(cmd, model.spin.Tick, model.scanCmd())

	case "enter":
		visible := m.visibleDevices()
		if len(visible) == 0 {
			return m.setStatus("No devices: press s to scan, or b for system settings")
		}
		m.busy = true
		return m, m.connectCmd(visible[m.cursor])

	case "d":
		return m, m.disconnectCmd()

	case "t":
		m.busy = true
		return m, m.speakDemoCmd()

	case "l":
		return m, m.languagesCmd()

	case "v":
		return m, func() tea.Msg {
			return speaker.PromptMsg{Prompt: m.session.CheckSystemConnection()}
		}

	case "b":
		if err := m.session.OpenBluetoothSettings(); err != nil {
			return m.setStatus("Error: " + err.Error())
		}
		return m.setStatus("Opened system Bluetooth settings")

	case "c":
		last := m.session.LastSpoken()
		if last == "" {
			return m.setStatus("Nothing spoken yet")
		}
		// Copy via OSC 52 first so it works over SSH, then the native
		// clipboard as backup.
		termenv.Copy(last)
		_ = clipboard.WriteAll(last)
		return m.setStatus("Copied last announcement")
	}

	return m, nil
}

// Commands

func (m Model) scanCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		devices, err := m.session.Scan(ctx)
		if err != nil {
			return speaker.SessionErrorMsg{Err: err}
		}
		return speaker.DevicesUpdatedMsg{Devices: devices}
	}
}

func (m Model) connectCmd(device speaker.Device) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := m.session.Connect(ctx, device); err != nil {
			return speaker.SessionErrorMsg{Err: err}
		}
		return speaker.ConnectedMsg{Device: device}
	}
}

func (m Model) disconnectCmd() tea.Cmd {
	return func() tea.Msg {
		m.session.Disconnect()
		return speaker.DisconnectedMsg{}
	}
}

func (m Model) speakDemoCmd() tea.Cmd {
	notification := payments.Demo(m.rng)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		spoken, err := m.session.Speak(ctx, notification.Text())
		if err != nil {
			return speaker.SessionErrorMsg{Err: err}
		}
		return speaker.SpokeMsg{Text: spoken}
	}
}

func (m Model) languagesCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		langs := m.session.Languages(ctx)
		return speaker.PromptMsg{Prompt: speaker.Prompt{
			Message: "Voices: " + strings.Join(langs, ", "),
		}}
	}
}

// visibleDevices applies the fuzzy filter to the device list.
func (m Model) visibleDevices() []speaker.Device {
	query := strings.TrimSpace(m.filterInput.Value())
	if query == "" {
		return m.devices
	}

	names := make([]string, len(m.devices))
	for i, d := range m.devices {
		names[i] = d.Name
	}
	matches := fuzzy.Find(query, names)
	out := make([]speaker.Device, 0, len(matches))
	for _, match := range matches {
		out = append(out, m.devices[match.Index])
	}
	return out
}

func (m Model) setStatus(text string) (Model, tea.Cmd) {
	m.status = text
	m.statusID++
	id := m.statusID
	return m, tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusExpiredMsg{id: id}
	})
}
