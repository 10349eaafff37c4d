package domain

import "fmt"

// Modality identifies the kind of content a chunk was produced from.
type Modality string

// Supported modalities.
const (
	// ModalityText is plain or extracted document text.
	ModalityText Modality = "text"

	// ModalityImage is a single image.
	ModalityImage Modality = "image"

	// ModalityAudioTranscript is text transcribed from audio.
	// It is embedded through the text encoder.
	ModalityAudioTranscript Modality = "audio-transcript"
)

// ModalityFamily groups modalities that share one embedding space.
// Distances are only comparable within a family, so each family is
// served by its own sub-index.
type ModalityFamily string

// Supported modality families.
const (
	// FamilyText covers text and audio transcripts (shared text encoder).
	FamilyText ModalityFamily = "text"

	// FamilyImage covers images (joint text/image encoder).
	FamilyImage ModalityFamily = "image"
)

// Family returns the embedding family for a modality.
func (m Modality) Family() ModalityFamily {
	if m == ModalityImage {
		return FamilyImage
	}
	return FamilyText
}

// Valid reports whether the modality is one of the supported values.
func (m Modality) Valid() bool {
	switch m {
	case ModalityText, ModalityImage, ModalityAudioTranscript:
		return true
	default:
		return false
	}
}

// ParseModality converts a string to a Modality.
func ParseModality(s string) (Modality, error) {
	m := Modality(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: unknown modality %q", ErrInvalidInput, s)
	}
	return m, nil
}

// ParseFamily converts a string to a ModalityFamily.
func ParseFamily(s string) (ModalityFamily, error) {
	switch f := ModalityFamily(s); f {
	case FamilyText, FamilyImage:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown modality family %q", ErrInvalidInput, s)
	}
}
