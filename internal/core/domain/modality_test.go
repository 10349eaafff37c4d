package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModalityFamily(t *testing.T) {
	tests := []struct {
		name     string
		modality Modality
		want     ModalityFamily
	}{
		{"text maps to text family", ModalityText, FamilyText},
		{"audio transcript shares the text encoder", ModalityAudioTranscript, FamilyText},
		{"image has its own family", ModalityImage, FamilyImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.modality.Family())
		})
	}
}

func TestParseModality(t *testing.T) {
	m, err := ParseModality("audio-transcript")
	require.NoError(t, err)
	assert.Equal(t, ModalityAudioTranscript, m)

	_, err = ParseModality("video")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseFamily(t *testing.T) {
	f, err := ParseFamily("image")
	require.NoError(t, err)
	assert.Equal(t, FamilyImage, f)

	_, err = ParseFamily("audio")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
