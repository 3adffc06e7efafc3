package text

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitIntoChunks_ShortText(t *testing.T) {
	chunks := SplitIntoChunks("Hola mundo. Adiós.", 200)
	assert.Equal(t, []string{"Hola mundo. Adiós."}, chunks)

	assert.Empty(t, SplitIntoChunks("   ", 200))
}

func TestSplitIntoChunks_SentenceBoundaries(t *testing.T) {
	text := "Primera frase corta. Segunda frase algo más larga! ¿Tercera pregunta?\n\nNuevo párrafo sin punto final"
	chunks := SplitIntoChunks(text, 40)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, "Primera frase corta.", chunks[0])
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 40, chunk)
	}
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(chunks, " ")))
}

func TestSplitIntoChunks_NoMidWordSplit(t *testing.T) {
	sentence := strings.Repeat("palabra ", 60) + "final."
	chunks := SplitIntoChunks(sentence, 50)

	require.Greater(t, len(chunks), 2)
	words := map[string]bool{"palabra": true, "final.": true}
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 50)
		for _, w := range strings.Fields(chunk) {
			assert.True(t, words[w], w)
		}
	}
	assert.Equal(t, strings.Fields(sentence), strings.Fields(strings.Join(chunks, " ")))
}

func TestSplitIntoChunks_LongWord(t *testing.T) {
	long := strings.Repeat("x", 30)
	chunks := SplitIntoChunks("corto "+long+" fin.", 10)
	assert.Equal(t, []string{"corto", long, "fin."}, chunks)
}

func TestSplitIntoChunks_NoLimit(t *testing.T) {
	chunks := SplitIntoChunks("Uno.\n\nDos.", 0)
	assert.Equal(t, []string{"Uno. Dos."}, chunks)
}
