package tui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessellate-io/flume/capture"
)

// InspectModel is a Bubble Tea model for the capture inspect view.
// Up/down moves the payload cursor; the selected payload is shown
// pretty-printed below the session summary.
type InspectModel struct {
	viewType string
	data     any
	cursor   int
	width    int
	height   int
	quitting bool
}

// NewInspectModel creates a new inspect model.
func NewInspectModel(viewType string, data any) InspectModel {
	return InspectModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if c, ok := m.data.(*capture.Capture); ok && m.cursor < len(c.Payloads)-1 {
				m.cursor++
			}
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "inspect_capture":
		content = m.renderInspectCapture()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("up/down: select payload • q: quit")
	return content + "\n" + help
}

func (m InspectModel) renderInspectCapture() string {
	c, ok := m.data.(*capture.Capture)
	if !ok {
		return "Invalid data type for inspect_capture"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Session Capture"))
	b.WriteString("\n\n")

	rows := [][]string{
		{"Session ID", c.SessionID},
		{"Worker", c.Worker},
		{"Created At", c.CreatedAt},
		{"Channel", c.ChannelAddr},
		{"Payloads", fmt.Sprintf("%d", len(c.Payloads))},
		{"Duration", (time.Duration(c.DurationMs) * time.Millisecond).String()},
	}

	for _, row := range rows {
		label := LabelStyle.Render(row[0] + ":")
		b.WriteString(fmt.Sprintf("%s %s\n", label, ValueStyle.Render(row[1])))
	}

	label := LabelStyle.Render("Exit Code:")
	b.WriteString(fmt.Sprintf("%s %s\n", label,
		ExitCodeStyle(c.ExitCode).Render(fmt.Sprintf("%d", c.ExitCode))))

	if len(c.Payloads) > 0 {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render(fmt.Sprintf("Payload %d/%d", m.cursor+1, len(c.Payloads))))
		b.WriteString("\n")
		b.WriteString(m.renderPayload(c))
	}

	return BoxStyle.Render(b.String())
}

func (m InspectModel) renderPayload(c *capture.Capture) string {
	cursor := m.cursor
	if cursor >= len(c.Payloads) {
		cursor = len(c.Payloads) - 1
	}
	pretty, err := json.MarshalIndent(c.Payloads[cursor], "", "  ")
	if err != nil {
		return ErrorStyle.Render(fmt.Sprintf("payload not renderable: %v", err))
	}
	return ValueStyle.Render(string(pretty))
}

// RunInspectTUI runs the inspect TUI.
func RunInspectTUI(viewType string, data any) error {
	model := NewInspectModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderInspectStatic renders inspect data without full TUI (for fallback).
func RenderInspectStatic(viewType string, data any) string {
	model := NewInspectModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
