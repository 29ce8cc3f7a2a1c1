package extract_test

import (
	"testing"

	"github.com/CoderCouple/context0/errors"
	"github.com/CoderCouple/context0/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFactsIdentityAndWork(t *testing.T) {
	e := extract.NewExtractor()

	facts, err := e.ExtractFacts("Hi, my name is Alice and I work at Acme")
	require.NoError(t, err)
	require.Len(t, facts, 2)

	assert.Equal(t, extract.CategoryIdentity, facts[0].Category)
	assert.Equal(t, "Alice", facts[0].Content)
	assert.InDelta(t, 0.8, facts[0].Confidence, 1e-9)

	assert.Equal(t, extract.CategoryWork, facts[1].Category)
	assert.Equal(t, "Acme", facts[1].Content)
	assert.InDelta(t, 0.9, facts[1].Confidence, 1e-9)
}

func TestExtractFactsNoMatch(t *testing.T) {
	e := extract.NewExtractor()

	facts, err := e.ExtractFacts("The weather is nice today")
	require.NoError(t, err)
	assert.Empty(t, facts)
}

func TestExtractFactsEmptyText(t *testing.T) {
	e := extract.NewExtractor()

	facts, err := e.ExtractFacts("   \n\t  ")
	require.NoError(t, err)
	assert.Empty(t, facts)
}

func TestExtractFactsInvalidUTF8(t *testing.T) {
	e := extract.NewExtractor()

	_, err := e.ExtractFacts("my name is \xff\xfe")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidParams))
}

func TestExtractFactsStripsHTML(t *testing.T) {
	e := extract.NewExtractor()

	facts, err := e.ExtractFacts("I live in <b>Austin, TX</b>")
	require.NoError(t, err)
	require.Len(t, facts, 1)

	assert.Equal(t, extract.CategoryLocation, facts[0].Category)
	assert.Equal(t, "Austin, TX", facts[0].Content)
	assert.InDelta(t, 0.9, facts[0].Confidence, 1e-9)
}

func TestExtractFactsDedupKeepsHighestConfidence(t *testing.T) {
	e := extract.NewExtractor()

	facts, err := e.ExtractFacts("My name is Alice. Call me Alice")
	require.NoError(t, err)
	require.Len(t, facts, 1)

	assert.Equal(t, extract.CategoryIdentity, facts[0].Category)
	assert.Equal(t, "Alice", facts[0].Content)
	assert.InDelta(t, 0.8, facts[0].Confidence, 1e-9)
}

func TestExtractFactsConfidenceClamped(t *testing.T) {
	e := extract.NewExtractor()

	facts, err := e.ExtractFacts("My name is Alexander Maximilian Bartholomew")
	require.NoError(t, err)
	require.Len(t, facts, 1)

	assert.InDelta(t, 1.0, facts[0].Confidence, 1e-9)
}

func TestExtractFactsContentLengthFilter(t *testing.T) {
	e := extract.NewExtractor()

	// "Al" is below the minimum content length.
	facts, err := e.ExtractFacts("Call me Al")
	require.NoError(t, err)
	assert.Empty(t, facts)
}

func TestExtractFactsPreference(t *testing.T) {
	e := extract.NewExtractor()

	facts, err := e.ExtractFacts("I love hiking in the mountains")
	require.NoError(t, err)
	require.Len(t, facts, 1)

	assert.Equal(t, extract.CategoryPreference, facts[0].Category)
	assert.Equal(t, "hiking in the mountains", facts[0].Content)
	assert.InDelta(t, 0.8, facts[0].Confidence, 1e-9)
}

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "collapses whitespace",
			input:    "  my   name\tis\n Alice ",
			expected: "my name is Alice",
		},
		{
			name:     "strips html tags",
			input:    "<div>I work at <b>Acme</b></div>",
			expected: "I work at Acme",
		},
		{
			name:     "normalizes curly quotes",
			input:    "I’m called “Ace”",
			expected: `I'm called "Ace"`,
		},
		{
			name:     "drops control characters",
			input:    "my\x00 name is\x01 Alice",
			expected: "my name is Alice",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, extract.Normalize(tc.input))
		})
	}
}

func TestWithRulesOverridesTable(t *testing.T) {
	e := extract.NewExtractor(extract.WithRules(extract.DefaultRules()[:3]))

	// Only the identity rules are active, so the work phrase is ignored.
	facts, err := e.ExtractFacts("my name is Alice and I work at Acme")
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, extract.CategoryIdentity, facts[0].Category)
}

func TestWithScoring(t *testing.T) {
	scoring := extract.DefaultScoring()
	scoring.Base = 0.1

	e := extract.NewExtractor(extract.WithScoring(scoring))

	facts, err := e.ExtractFacts("my name is Alice")
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.InDelta(t, 0.4, facts[0].Confidence, 1e-9)
}
