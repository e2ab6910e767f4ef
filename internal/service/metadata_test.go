package service

import (
	"testing"

	"github.com/schnitzlab/curator/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"title":"x"}`, `{"title":"x"}`},
		{"json fence", "```json\n{\"title\":\"x\"}\n```", `{"title":"x"}`},
		{"plain fence", "```\n[1,2]\n```", "[1,2]"},
		{"surrounding whitespace", "  {\"a\":1}\n", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestParseMetadataResponse(t *testing.T) {
	text := "```json\n" + `{
		"title": "Schnitzmesser richtig schaerfen",
		"summary": "Kurzanleitung\nAusfuehrliche Schritte zum Schaerfen.",
		"category": "Werkzeug",
		"tags": ["schnitzmesser", "schaerfen"],
		"language": "Deutsch",
		"quality_score": 8
	}` + "\n```"

	metadata, err := ParseMetadataResponse(text)
	require.NoError(t, err)
	assert.Equal(t, "Schnitzmesser richtig schaerfen", metadata.Title)
	assert.Equal(t, domain.CategoryWerkzeug, metadata.Category)
	assert.Equal(t, []string{"schnitzmesser", "schaerfen"}, metadata.Tags)
	assert.Equal(t, 8, metadata.QualityScore)
}

func TestParseMetadataResponseDefaults(t *testing.T) {
	metadata, err := ParseMetadataResponse(`{"title": "Nur ein Titel"}`)
	require.NoError(t, err)

	assert.Equal(t, domain.CategorySonstiges, metadata.Category)
	assert.Equal(t, "Deutsch", metadata.Language)
	assert.NotNil(t, metadata.Tags)
	assert.Empty(t, metadata.Tags)
	// Missing score defaults to the neutral middle.
	assert.Equal(t, 5, metadata.QualityScore)
}

func TestParseMetadataResponseZeroScoreKept(t *testing.T) {
	// An explicit zero is a verdict, not a missing field.
	metadata, err := ParseMetadataResponse(`{"title": "Spam", "quality_score": 0}`)
	require.NoError(t, err)
	assert.Equal(t, 0, metadata.QualityScore)
}

func TestParseMetadataResponseClampsScore(t *testing.T) {
	metadata, err := ParseMetadataResponse(`{"title": "x", "quality_score": 14}`)
	require.NoError(t, err)
	assert.Equal(t, 10, metadata.QualityScore)

	metadata, err = ParseMetadataResponse(`{"title": "x", "quality_score": -3}`)
	require.NoError(t, err)
	assert.Equal(t, 0, metadata.QualityScore)
}

func TestParseMetadataResponseInvalidJSON(t *testing.T) {
	_, err := ParseMetadataResponse("Entschuldigung, das kann ich nicht.")
	assert.Error(t, err)
}
