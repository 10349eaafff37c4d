package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
)

type stubRetriever struct {
	result domain.QueryResult
	err    error
}

func (s *stubRetriever) Retrieve(_ context.Context, _ string, _ driving.RetrieveOptions) (domain.QueryResult, error) {
	return s.result, s.err
}

type stubGenerator struct {
	answer domain.Answer
	err    error
}

func (s *stubGenerator) Generate(_ context.Context, _ string, _ domain.QueryResult, _ []domain.ConversationTurn) (domain.Answer, error) {
	return s.answer, s.err
}

func newTestModel(answer domain.Answer) Model {
	return New(Ports{
		Retriever: &stubRetriever{},
		Generator: &stubGenerator{answer: answer},
	})
}

func sized(m Model) Model {
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func TestViewBeforeSizing(t *testing.T) {
	m := newTestModel(domain.Answer{})
	assert.Equal(t, "Loading...", m.View())
}

func TestWindowSizeMakesReady(t *testing.T) {
	m := sized(newTestModel(domain.Answer{}))
	assert.True(t, m.ready)
	assert.Contains(t, m.View(), "recall chat")
}

func TestEnterWithEmptyInputDoesNothing(t *testing.T) {
	m := sized(newTestModel(domain.Answer{}))

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, updated.(Model).thinking)
}

func TestEnterStartsAsk(t *testing.T) {
	m := sized(newTestModel(domain.Answer{Text: "Paris.", Grounded: true}))
	m.input.SetValue("capital of France?")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model := updated.(Model)

	require.NotNil(t, cmd)
	assert.True(t, model.thinking)
	assert.Equal(t, "Thinking...", model.status)
	assert.Empty(t, model.input.Value())

	// Run the command and feed the message back.
	msg := cmd()
	answer, ok := msg.(answerMsg)
	require.True(t, ok)
	assert.Equal(t, "Paris.", answer.answer.Text)
}

func TestAnswerMsgAppendsToTranscript(t *testing.T) {
	m := sized(newTestModel(domain.Answer{}))

	updated, _ := m.Update(answerMsg{
		question: "capital of France?",
		answer: domain.Answer{
			Text:      "Paris.",
			Citations: []domain.Citation{{ChunkID: 1, SourcePath: "facts.txt", Score: 0.9}},
			Grounded:  true,
		},
	})
	model := updated.(Model)

	assert.False(t, model.thinking)
	assert.Equal(t, "Ready.", model.status)
	require.Len(t, model.entries, 1)
	require.Len(t, model.history, 1)

	transcript := model.renderTranscript()
	assert.Contains(t, transcript, "Q: capital of France?")
	assert.Contains(t, transcript, "Paris.")
	assert.Contains(t, transcript, "facts.txt")
}

func TestAnswerMsgWithErrorSetsStatus(t *testing.T) {
	m := sized(newTestModel(domain.Answer{}))

	updated, _ := m.Update(answerMsg{err: errors.New("model unreachable")})
	model := updated.(Model)

	assert.False(t, model.thinking)
	assert.Contains(t, model.status, "model unreachable")
	assert.Empty(t, model.entries)
}

func TestCtrlCQuits(t *testing.T) {
	m := sized(newTestModel(domain.Answer{}))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
