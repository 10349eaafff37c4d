package audio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

type fakeTranscriber struct {
	transcript string
	err        error
}

func (f *fakeTranscriber) Transcribe(context.Context, string) (string, error) {
	return f.transcript, f.err
}

func (f *fakeTranscriber) Ping(context.Context) error { return nil }
func (f *fakeTranscriber) Close() error               { return nil }

func TestExtractTranscript(t *testing.T) {
	e := New(&fakeTranscriber{transcript: " the meeting starts at noon "})

	units, err := e.Extract(context.Background(), "meeting.wav")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, domain.ModalityAudioTranscript, units[0].Modality)
	assert.Equal(t, "the meeting starts at noon", units[0].Text)
}

func TestExtractTranscriptionFailure(t *testing.T) {
	e := New(&fakeTranscriber{err: errors.New("service down")})

	_, err := e.Extract(context.Background(), "meeting.wav")
	assert.Error(t, err)
}

func TestExtractNoTranscriber(t *testing.T) {
	e := New(nil)

	_, err := e.Extract(context.Background(), "meeting.wav")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestExtractEmptyTranscript(t *testing.T) {
	e := New(&fakeTranscriber{transcript: "  "})

	units, err := e.Extract(context.Background(), "silence.wav")
	require.NoError(t, err)
	assert.Empty(t, units)
}
