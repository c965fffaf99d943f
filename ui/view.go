package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"github.com/tridung778/noti-fin/speaker"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	connectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)

// View renders the device list with the session status bar.
func (m Model) View() string {
	width := m.width
	if width == 0 {
		width = 80
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("NotiFin — payment speaker"))
	b.WriteString("\n\n")

	if m.filtering || m.filterInput.Value() != "" {
		b.WriteString(m.filterInput.View())
		b.WriteString("\n\n")
	}

	visible := m.visibleDevices()
	if len(visible) == 0 {
		b.WriteString(dimStyle.Render("  No devices. Press s to scan, b for system settings."))
		b.WriteString("\n")
	}
	for i, d := range visible {
		b.WriteString(m.renderDevice(d, i == m.cursor, width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.statusBar(width))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("s scan · enter connect · d disconnect · t test payment · l voices · / filter · c copy · b settings · q quit"))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderDevice(d speaker.Device, selected bool, width int) string {
	cursor := "  "
	if selected {
		cursor = "> "
	}

	name := d.Name
	if name == "" {
		name = d.ID
	}
	name = truncate.StringWithTail(name, uint(max(10, width-36)), "…")

	mark := " "
	if d.State == speaker.Connected {
		mark = connectedStyle.Render("●")
	}
	if d.Synthesized {
		name += dimStyle.Render(" (placeholder)")
	}

	line := fmt.Sprintf("%s%s %s %s", cursor, mark, name, dimStyle.Render(d.Address))
	if selected {
		return selectedStyle.Render(line)
	}
	return line
}

func (m Model) statusBar(width int) string {
	state := m.session.State().String()
	if m.busy {
		state = m.spin.View() + state
	}
	if m.session.Speaking() {
		state += " ♪"
	}

	left := fmt.Sprintf("%s · %s", state, m.session.EngineName())
	right := m.status
	if strings.HasPrefix(right, "Error:") {
		right = errorStyle.Render(right)
	}

	gap := width - runewidth.StringWidth(left) - runewidth.StringWidth(m.status) - 4
	if gap < 1 {
		gap = 1
		right = truncate.StringWithTail(right, uint(max(10, width-runewidth.StringWidth(left)-6)), "…")
	}
	return statusBarStyle.Render(left + strings.Repeat(" ", gap) + right)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
