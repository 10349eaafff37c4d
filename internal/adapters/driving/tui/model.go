// Package tui implements the interactive chat interface. It keeps a
// running transcript of questions and grounded answers; every model
// call runs as a Bubble Tea command so the interface stays responsive
// while the LLM thinks.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
)

// Ports are the services the chat view depends on.
type Ports struct {
	Retriever driving.Retriever
	Generator driving.Generator
	History   driven.HistoryStore
}

// entry is one completed exchange in the transcript.
type entry struct {
	question  string
	answer    string
	citations []domain.Citation
}

// answerMsg carries the result of one ask round trip.
type answerMsg struct {
	question string
	answer   domain.Answer
	err      error
}

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	ports    Ports
	input    textinput.Model
	viewport viewport.Model
	entries  []entry
	history  []domain.ConversationTurn
	status   string
	thinking bool
	ready    bool
}

// New creates the chat model.
func New(ports Ports) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		ports:    ports,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   "Ready.",
	}
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, frameH := transcriptStyle.GetFrameSize()
		_, inputH := inputStyle.GetFrameSize()
		reserved := 1 + 1 + inputH + 1 // header, status, input box, spacer
		height := msg.Height - reserved - frameH
		if height < 3 {
			height = 3
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = height
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			question := strings.TrimSpace(m.input.Value())
			if question == "" || m.thinking {
				return m, nil
			}
			m.input.Reset()
			m.thinking = true
			m.status = "Thinking..."
			return m, m.ask(question)
		case "up":
			m.viewport.ScrollUp(1)
			return m, nil
		case "down":
			m.viewport.ScrollDown(1)
			return m, nil
		}

	case answerMsg:
		m.thinking = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.entries = append(m.entries, entry{
			question:  msg.question,
			answer:    msg.answer.Text,
			citations: msg.answer.Citations,
		})
		m.history = append(m.history, domain.ConversationTurn{
			Question: msg.question,
			Answer:   msg.answer.Text,
		})
		m.status = "Ready."
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("recall chat")
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

// ask runs the retrieve/generate round trip off the UI loop.
func (m Model) ask(question string) tea.Cmd {
	ports := m.ports
	history := m.history

	return func() tea.Msg {
		ctx := context.Background()

		result, err := ports.Retriever.Retrieve(ctx, question, driving.RetrieveOptions{})
		if err != nil {
			return answerMsg{question: question, err: err}
		}

		answer, err := ports.Generator.Generate(ctx, question, result, history)
		if err != nil {
			return answerMsg{question: question, err: err}
		}

		if ports.History != nil {
			turn := domain.ConversationTurn{
				ID:        uuid.NewString(),
				Question:  question,
				Answer:    answer.Text,
				Citations: answer.Citations,
				CreatedAt: time.Now().UTC(),
			}
			// Best effort; the exchange is already on screen.
			_ = ports.History.SaveTurn(ctx, turn)
		}

		return answerMsg{question: question, answer: answer}
	}
}

func (m Model) renderTranscript() string {
	if len(m.entries) == 0 {
		return "No questions yet. Type one below."
	}

	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(questionStyle.Render("Q: " + e.question))
		b.WriteString("\n")
		b.WriteString(e.answer)
		for j, c := range e.citations {
			b.WriteString(fmt.Sprintf("\n  [%d] %s#%d (%.2f)", j+1, c.SourcePath, c.SourceOffset, c.Score))
		}
	}
	return b.String()
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)
