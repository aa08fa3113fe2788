package rubric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/itemforge/core"
)

func TestEvidenceMapExpand(t *testing.T) {
	m := DefaultEvidenceMap()

	t.Run("bare code", func(t *testing.T) {
		full, err := m.Expand("2.e")
		require.NoError(t, err)
		assert.Equal(t, "2.e: Understand the concept of adequacy of consideration and the principle of 'freedom of contract.'", full)
	})

	t.Run("already expanded rewrites to canonical text", func(t *testing.T) {
		full, err := m.Expand("2.e: something the model paraphrased")
		require.NoError(t, err)
		assert.Contains(t, full, "adequacy of consideration")
	})

	t.Run("unknown bare code fails", func(t *testing.T) {
		_, err := m.Expand("99.z")
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrUnknownEvidenceCode)
		assert.ErrorIs(t, err, core.ErrValidation)
	})

	t.Run("free text passes through", func(t *testing.T) {
		full, err := m.Expand("Understand the mailbox rule.")
		require.NoError(t, err)
		assert.Equal(t, "Understand the mailbox rule.", full)
	})

	t.Run("unknown code with text passes through", func(t *testing.T) {
		full, err := m.Expand("12.q: Some future evidence statement.")
		require.NoError(t, err)
		assert.Equal(t, "12.q: Some future evidence statement.", full)
	})
}

func TestEvidenceMapExpandAll(t *testing.T) {
	m := DefaultEvidenceMap()

	expanded, err := m.ExpandAll([]string{"2.a", "2.e"})
	require.NoError(t, err)
	require.Len(t, expanded, 2)
	assert.Contains(t, expanded[0], "bargained-for-exchange")

	_, err = m.ExpandAll([]string{"2.a", "99.z"})
	assert.ErrorIs(t, err, core.ErrUnknownEvidenceCode)
}

func TestEvidenceMapForTopic(t *testing.T) {
	m := DefaultEvidenceMap()

	t.Run("TP prefix", func(t *testing.T) {
		statements := m.ForTopic("TP.2", 0)
		require.Len(t, statements, 6)
		assert.Equal(t, "2.a: Apply the legal test for consideration, including both elements of legal value and bargained-for-exchange.", statements[0])
	})

	t.Run("bare number", func(t *testing.T) {
		assert.Len(t, m.ForTopic("9", 0), 2)
	})

	t.Run("cap", func(t *testing.T) {
		statements := m.ForTopic("TP.2", 3)
		require.Len(t, statements, 3)
		// Code order is stable, so the cap keeps the first codes.
		assert.Contains(t, statements[2], "2.c:")
	})

	t.Run("unknown topic", func(t *testing.T) {
		assert.Empty(t, m.ForTopic("TP.42", 0))
	})
}

func TestTopicNumber(t *testing.T) {
	assert.Equal(t, "2", TopicNumber("TP.2"))
	assert.Equal(t, "2", TopicNumber("TP.02"))
	assert.Equal(t, "2", TopicNumber("2"))
	assert.Equal(t, "", TopicNumber(""))
}
