package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"notewise/internal/ai"
	"notewise/internal/chat"
	"notewise/internal/emoji"
)

// Message types for the chat app
type tickMsg time.Time

type streamStartedMsg struct {
	stream <-chan ai.StreamChunk
}

type streamChunkMsg struct {
	content string
}

type streamDoneMsg struct{}

type streamErrorMsg struct {
	err error
}

// ChatModel drives the interactive chat TUI around a chat session.
type ChatModel struct {
	session *chat.Session

	viewport viewport.Model
	input    textinput.Model

	stream   <-chan ai.StreamChunk
	partial  strings.Builder
	thinking bool

	spinnerFrame int
	width        int
	height       int
	ready        bool
	quitting     bool
	err          error
}

// NewChatModel creates a chat model around an existing session.
func NewChatModel(session *chat.Session) *ChatModel {
	input := textinput.New()
	input.Placeholder = "Ask about your notes..."
	input.CharLimit = 4096
	input.Focus()

	return &ChatModel{
		session: session,
		input:   input,
	}
}

// Init initializes the chat model
func (m *ChatModel) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		textinput.Blink,
		tick(),
	)
}

// Update handles messages
func (m *ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		return m.handleTick()
	case streamStartedMsg:
		m.stream = msg.stream
		return m, waitForChunk(msg.stream)
	case streamChunkMsg:
		m.partial.WriteString(msg.content)
		m.refreshTranscript()
		return m, waitForChunk(m.stream)
	case streamDoneMsg:
		m.finishTurn()
		return m, nil
	case streamErrorMsg:
		m.err = msg.err
		m.finishTurn()
		return m, nil
	}

	return m.updateComponents(msg)
}

func (m *ChatModel) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	// Title, input box, and hint line take up the rest.
	viewportHeight := msg.Height - 6
	if viewportHeight < 3 {
		viewportHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = viewportHeight
	}
	m.input.Width = msg.Width - 6
	m.refreshTranscript()

	return m, nil
}

func (m *ChatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "enter":
		if m.thinking {
			return m, nil
		}
		question := strings.TrimSpace(m.input.Value())
		if question == "" {
			return m, nil
		}
		m.input.Reset()
		m.err = nil
		m.thinking = true
		m.refreshTranscript()
		return m, m.ask(question)

	case "ctrl+l":
		if !m.thinking {
			m.session.Clear()
			m.err = nil
			m.refreshTranscript()
		}
		return m, nil
	}

	return m.updateComponents(msg)
}

func (m *ChatModel) handleTick() (tea.Model, tea.Cmd) {
	if m.thinking {
		m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerChars)
		m.refreshTranscript()
	}
	return m, tick()
}

func (m *ChatModel) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// ask starts a streaming completion for the question. The session
// stages the turn and enriches it with note context before sending.
func (m *ChatModel) ask(question string) tea.Cmd {
	return func() tea.Msg {
		stream, err := m.session.SendStream(context.Background(), question, nil)
		if err != nil {
			return streamErrorMsg{err: err}
		}
		return streamStartedMsg{stream: stream}
	}
}

// waitForChunk reads one chunk from the stream and reschedules itself
// until the stream closes.
func waitForChunk(stream <-chan ai.StreamChunk) tea.Cmd {
	return func() tea.Msg {
		chunk, ok := <-stream
		if !ok {
			return streamDoneMsg{}
		}
		if chunk.Error != nil {
			return streamErrorMsg{err: chunk.Error}
		}
		return streamChunkMsg{content: chunk.Content}
	}
}

func (m *ChatModel) finishTurn() {
	m.thinking = false
	m.stream = nil
	m.partial.Reset()
	m.refreshTranscript()
	m.viewport.GotoBottom()
}

// refreshTranscript re-renders the conversation into the viewport.
func (m *ChatModel) refreshTranscript() {
	if !m.ready {
		return
	}

	wrap := lipgloss.NewStyle().Width(m.viewport.Width - 2)
	var b strings.Builder

	for _, msg := range m.session.Transcript() {
		switch msg.Role {
		case ai.RoleUser:
			b.WriteString(userLabelStyle.Render("You"))
		case ai.RoleAssistant:
			b.WriteString(assistantLabelStyle.Render("Notewise"))
		default:
			continue
		}
		b.WriteString("\n")
		b.WriteString(wrap.Render(msg.Content))
		b.WriteString("\n\n")
	}

	if m.thinking {
		b.WriteString(assistantLabelStyle.Render("Notewise"))
		b.WriteString("\n")
		if m.partial.Len() > 0 {
			b.WriteString(wrap.Render(m.partial.String()))
		} else {
			b.WriteString(hintStyle.Render(spinnerChars[m.spinnerFrame] + " thinking..."))
		}
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("%s %v", emoji.GetEmoji("error"), m.err)))
		b.WriteString("\n")
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(b.String())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// View renders the chat model
func (m *ChatModel) View() string {
	if m.quitting {
		return "Thanks for using Notewise! " + emoji.GetEmoji("door") + "\n"
	}
	if !m.ready {
		return "Initializing..."
	}

	title := titleStyle.Render(emoji.GetEmoji("chat") + " Notewise Chat")
	hint := hintStyle.Render("enter: send • ctrl+l: clear • esc: quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.viewport.View(),
		inputBoxStyle.Width(m.width-2).Render(m.input.View()),
		hint,
	)
}

// Run starts the chat TUI and blocks until the user quits.
func Run(session *chat.Session) error {
	model := NewChatModel(session)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
