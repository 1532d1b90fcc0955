// Package tui implements the interactive chat interface.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marrow-labs/docchat-cli/internal/core/domain"
	"github.com/marrow-labs/docchat-cli/internal/core/ports/driving"
)

// answerReceived carries the result of an Answer call back into Update.
type answerReceived struct {
	question string
	answer   string
	conv     domain.Conversation
	err      error
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	chat   driving.ChatService
	ctx    context.Context
	styles *Styles

	input    textinput.Model
	viewport viewport.Model

	conv       domain.Conversation
	transcript []string
	status     string
	waiting    bool
	ready      bool
	width      int
	height     int

	modelName string
}

// New creates a chat model backed by the given service.
func New(ctx context.Context, chat driving.ChatService, modelName string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about your documents"
	ti.CharLimit = 0
	ti.Focus()

	return Model{
		chat:      chat,
		ctx:       ctx,
		styles:    DefaultStyles(),
		input:     ti,
		viewport:  viewport.New(0, 0),
		status:    "Ready.",
		modelName: modelName,
	}
}

// Init starts the input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter && !m.waiting {
			return m.submit()
		}

	case answerReceived:
		m.waiting = false
		m.input.Focus()
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.conv = msg.conv
			m.transcript = append(m.transcript, m.styles.Answer.Render(msg.answer), "")
			m.status = "Ready."
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit sends the current question to the chat service.
func (m Model) submit() (tea.Model, tea.Cmd) {
	question := strings.TrimSpace(m.input.Value())
	if question == "" {
		return m, nil
	}
	m.input.SetValue("")
	m.input.Blur()
	m.waiting = true
	m.status = "Thinking..."
	m.transcript = append(m.transcript, m.styles.Question.Render("You: "+question))
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()

	conv := m.conv
	return m, func() tea.Msg {
		answer, updated, err := m.chat.Answer(m.ctx, conv, question)
		return answerReceived{question: question, answer: answer, conv: updated, err: err}
	}
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	title := m.styles.Title.Render("docchat")
	if m.modelName != "" {
		title += m.styles.Source.Render("  " + m.modelName)
	}
	transcript := m.styles.Transcript.Width(m.width - 2).Render(m.viewport.View())
	input := m.styles.InputBox.Width(m.width - 2).Render(m.input.View())
	status := m.statusLine()
	return lipgloss.JoinVertical(lipgloss.Left, title, transcript, input, status)
}

func (m Model) statusLine() string {
	if strings.HasPrefix(m.status, "Error:") {
		return m.styles.Error.Render(m.status)
	}
	return m.styles.Status.Render(m.status)
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return "Ask a question to get started. Ctrl-C quits."
	}
	return strings.Join(m.transcript, "\n")
}

func (m *Model) resize() {
	tFrameW, tFrameH := m.styles.Transcript.GetFrameSize()
	_, iFrameH := m.styles.InputBox.GetFrameSize()
	reserved := 1 + iFrameH + 1 + 1 + tFrameH // title, input box, input line, status
	h := m.height - reserved
	if h < 3 {
		h = 3
	}
	w := m.width - 2 - tFrameW
	if w < 20 {
		w = 20
	}
	m.viewport.Width = w
	m.viewport.Height = h
	m.input.Width = m.width - 8
}

// Run starts the chat TUI and blocks until the user quits.
func Run(ctx context.Context, chat driving.ChatService, modelName string) error {
	p := tea.NewProgram(New(ctx, chat, modelName), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat interface: %w", err)
	}
	return nil
}
