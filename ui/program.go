package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/tridung778/noti-fin/speaker"
)

// NewProgram returns a new Bubble Tea program for the speaker UI.
func NewProgram(session *speaker.Session, logger *log.Logger) *tea.Program {
	return tea.NewProgram(NewModel(session, logger), tea.WithAltScreen())
}
