package output

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultName используется, когда из заголовка не остается ни одного допустимого символа
	DefaultName = "microsoft_learn_course"
	// MaxNameLength - максимальная длина имени в символах
	MaxNameLength = 50
)

// SafeName превращает заголовок в имя файла или каталога: "Introducción a Power Apps" -> "introduccion_a_power_apps".
// Остаются только a-z, 0-9, "_" и "-".
func SafeName(title, fallback string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}

	name := collapse(b.String())
	if len(name) > MaxNameLength {
		name = strings.Trim(name[:MaxNameLength], "_-")
	}

	if name == "" {
		if fallback == "" || fallback == title {
			return DefaultName
		}
		return SafeName(fallback, "")
	}
	return name
}

// collapse схлопывает повторы разделителей и обрезает их по краям
func collapse(s string) string {
	var b strings.Builder
	var prev rune
	for _, r := range s {
		if (r == '_' || r == '-') && r == prev {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return strings.Trim(b.String(), "_-")
}

// UnitFilename возвращает имя файла юнита с номером: "01_introduccion.mp3".
// Ширина номера - не меньше двух цифр и не меньше разрядности общего числа юнитов.
func UnitFilename(ordinal, total int, title string) string {
	width := len(strconv.Itoa(total))
	if width < 2 {
		width = 2
	}
	return fmt.Sprintf("%0*d_%s.mp3", width, ordinal, SafeName(title, "unit"))
}
