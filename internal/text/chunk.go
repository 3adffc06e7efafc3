package text

import (
	"strings"
	"unicode/utf8"
)

// SplitIntoChunks делит текст на части не длиннее maxRunes символов.
// Границы выбираются по предложениям; длинное предложение делится между словами,
// слово длиннее лимита становится отдельной частью. Слова никогда не разрываются.
func SplitIntoChunks(text string, maxRunes int) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}
	if maxRunes <= 0 {
		return []string{strings.Join(sentences, " ")}
	}

	var (
		chunks  []string
		current string
	)
	flush := func() {
		if current != "" {
			chunks = append(chunks, current)
			current = ""
		}
	}
	appendPiece := func(piece string) {
		switch {
		case current == "":
			current = piece
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(piece) <= maxRunes:
			current += " " + piece
		default:
			flush()
			current = piece
		}
	}

	for _, sentence := range sentences {
		if utf8.RuneCountInString(sentence) <= maxRunes {
			appendPiece(sentence)
			continue
		}
		flush()
		for _, word := range strings.Fields(sentence) {
			appendPiece(word)
		}
		flush()
	}
	flush()

	return chunks
}

// splitSentences режет текст на предложения по завершающим знакам и границам абзацев
func splitSentences(text string) []string {
	var (
		sentences []string
		words     []string
	)
	flush := func() {
		if len(words) > 0 {
			sentences = append(sentences, strings.Join(words, " "))
			words = words[:0]
		}
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		for _, word := range strings.Fields(paragraph) {
			words = append(words, word)
			if endsSentence(word) {
				flush()
			}
		}
		flush()
	}

	return sentences
}

// endsSentence проверяет последний значимый символ слова: "fin." "(fin.)" "«fin!»"
func endsSentence(word string) bool {
	word = strings.TrimRight(word, `"')]»”`)
	r, _ := utf8.DecodeLastRuneInString(word)
	return r == '.' || r == '!' || r == '?' || r == '…'
}
