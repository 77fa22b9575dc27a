// Package tui implements the interactive chat session as a Bubble Tea
// program over the chat service.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bulochat/bulochat/internal/core/ports/driving"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	chatBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	cachedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// exchange is one question/answer pair in the session transcript.
type exchange struct {
	question string
	answer   string
	cached   bool
	err      error
}

// answerMsg carries a completed answer back into the update loop.
type answerMsg struct {
	question string
	result   *driving.AnswerResult
	err      error
}

// Model is the Bubble Tea model for the chat session.
type Model struct {
	chat  driving.ChatService
	ctx   context.Context
	title string

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model

	history []exchange
	waiting bool
	ready   bool
}

// New creates a chat session model. title names the business in the
// header; empty falls back to a generic label.
func New(ctx context.Context, chat driving.ChatService, title string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	if title == "" {
		title = "bulochat"
	}

	return Model{
		chat:     chat,
		ctx:      ctx,
		title:    title,
		input:    ti,
		viewport: viewport.New(0, 0),
		spin:     sp,
	}
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		// header + status + input box + spacer
		reserved := 2 + ih + 1 + ch
		vh := msg.Height - reserved - 1
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width-chatBoxStyle.GetHorizontalFrameSize())
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderHistory())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.waiting {
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			m.waiting = true
			m.input.Reset()
			return m, tea.Batch(m.askCmd(question), m.spin.Tick)
		}

	case answerMsg:
		m.waiting = false
		ex := exchange{question: msg.question, err: msg.err}
		if msg.result != nil {
			ex.answer = msg.result.Text
			ex.cached = msg.result.Cached
		}
		m.history = append(m.history, ex)
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// askCmd runs the chat pipeline off the update loop.
func (m Model) askCmd(question string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.chat.Answer(m.ctx, question)
		return answerMsg{question: question, result: result, err: err}
	}
}

// View renders the session.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := headerStyle.Render(m.title + " chat")
	transcript := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())

	status := statusStyle.Render("Enter to ask, Esc to quit")
	if m.waiting {
		status = m.spin.View() + " thinking..."
	}

	return header + "\n" + transcript + "\n" + input + "\n" + status
}

// renderHistory renders the full transcript for the viewport.
func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return "Ask anything about the business. Answers come from its blog."
	}

	var b strings.Builder
	for i, ex := range m.history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(questionStyle.Render("You: " + ex.question))
		b.WriteString("\n")
		switch {
		case ex.err != nil:
			b.WriteString(errorStyle.Render("Error: " + ex.err.Error()))
		case ex.cached:
			b.WriteString(fmt.Sprintf("%s %s", ex.answer, cachedStyle.Render("(cached)")))
		default:
			b.WriteString(ex.answer)
		}
	}
	return b.String()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
