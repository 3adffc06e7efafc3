package text

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"learn-audio/pkg/models"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// removeSelector перечисляет элементы интерфейса и оформление блоков кода
const removeSelector = "script, style, noscript, nav, header, footer, aside, form, button, svg, iframe, pre, " +
	"[role=navigation], [hidden], .codeHeader, .action, .visually-hidden, .xp-tag, .metadata"

// blockElements начинают новую строку текста
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
	"table": true, "thead": true, "tbody": true, "tr": true, "td": true, "th": true,
	"blockquote": true, "figure": true, "figcaption": true, "details": true, "summary": true,
}

// chromePhrases - фразы интерфейса Microsoft Learn (английский и испанский интерфейс)
var chromePhrases = []string{
	"skip to main content", "breadcrumb navigation", "table of contents",
	"in this article", "next steps", "feedback", "was this page helpful",
	"submit and view feedback", "microsoft learn", "sign in", "search",
	"browse", "theme", "light", "dark", "high contrast", "previous unit",
	"next unit", "completed", "check your knowledge", "knowledge check",
	"read in english", "ask learn", "add to plan", "add to collections", "achievements",
	"saltar al contenido principal", "tabla de contenido", "leer en ingles", "agregar",
	"agregar al plan", "logros", "preguntar a learn", "completado", "comentarios",
	"le ha resultado util esta pagina", "unidad siguiente", "siguiente unidad",
	"unidad anterior", "iniciar sesion", "minutos",
}

// chromeMaxRunes - фразы интерфейса ищем только в коротких строках, чтобы не терять абзацы текста
const chromeMaxRunes = 60

var (
	htmlTagRe     = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)
	urlLineRe     = regexp.MustCompile(`^(https?://|www\.|mailto:)`)
	durationRe    = regexp.MustCompile(`^\d+\s*(min|mins|minute|minutes|minuto|minutos|sec|secs|second|seconds|segundos|hr|hrs|hour|hours|hora|horas|h)\b`)
	ordinalLineRe = regexp.MustCompile(`^((step|paso|unit|unidad)\s*\d+|\d+)$`)
	repeatDotRe   = regexp.MustCompile(`\.{2,}`)
	repeatQRe     = regexp.MustCompile(`\?{2,}`)
	repeatExclRe  = regexp.MustCompile(`!{2,}`)
)

const allowedPunct = `-.,;:!?¡¿()[]"'/…`

// terminalPunct - знаки, после которых синтезатор делает паузу
const terminalPunct = ".!?:;…"

// Normalizer превращает HTML юнита в чистый текст для озвучки.
// Результат - блоки (заголовки, абзацы, пункты списков), разделенные пустой строкой,
// каждый блок заканчивается знаком препинания.
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer создает новый нормализатор текста
func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize очищает содержимое юнита. Повторный вызов на результате возвращает его без изменений.
func (n *Normalizer) Normalize(raw string) (string, error) {
	var lines []string
	if htmlTagRe.MatchString(raw) {
		extracted, err := htmlLines(raw)
		if err != nil {
			return "", models.NewError(models.ErrParse, "разбор HTML юнита", err)
		}
		lines = extracted
	} else {
		lines = strings.Split(raw, "\n")
	}

	blocks := make([]string, 0, len(lines))
	dropped := 0
	for _, line := range lines {
		line = cleanLine(line)
		if line == "" {
			continue
		}
		if isChrome(line) {
			dropped++
			continue
		}
		blocks = append(blocks, withPause(line))
	}

	if len(blocks) == 0 {
		return "", models.NewError(models.ErrEmptyContent, "после очистки текст пуст", nil)
	}

	n.logger.Debug("🧹 текст нормализован",
		zap.Int("blocks", len(blocks)),
		zap.Int("dropped", dropped))

	return strings.Join(blocks, "\n\n"), nil
}

// htmlLines обходит DOM и собирает текст блочных элементов построчно
func htmlLines(raw string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}
	doc.Find(removeSelector).Remove()

	var (
		lines   []string
		current strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			lines = append(lines, s)
		}
		current.Reset()
	}

	var walk func(sel *goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, child *goquery.Selection) {
			name := goquery.NodeName(child)
			switch {
			case name == "#text":
				current.WriteString(child.Text())
			case name == "br":
				flush()
			case blockElements[name]:
				flush()
				walk(child)
				flush()
			case strings.HasPrefix(name, "#"):
				// комментарии и прочие служебные узлы
			default:
				walk(child)
			}
		})
	}
	walk(doc.Find("body"))
	flush()

	return lines, nil
}

// cleanLine убирает недопустимые символы, схлопывает пробелы и повторы знаков
func cleanLine(line string) string {
	line = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(allowedPunct, r) {
			return r
		}
		return ' '
	}, line)
	line = strings.Join(strings.Fields(line), " ")
	line = repeatDotRe.ReplaceAllString(line, ".")
	line = repeatQRe.ReplaceAllString(line, "?")
	line = repeatExclRe.ReplaceAllString(line, "!")
	return line
}

// core - строка без завершающих знаков; все фильтры работают по ней
func core(line string) string {
	return strings.TrimRight(line, terminalPunct+",- ")
}

// isChrome определяет навигацию, метаданные и прочий мусор интерфейса
func isChrome(line string) bool {
	c := core(line)
	if utf8.RuneCountInString(c) < 3 {
		return true
	}

	if urlLineRe.MatchString(strings.ToLower(c)) {
		return true
	}

	folded := Fold(c)
	if ordinalLineRe.MatchString(folded) {
		return true
	}
	if utf8.RuneCountInString(c) > chromeMaxRunes {
		return false
	}
	if durationRe.MatchString(folded) {
		return true
	}
	padded := " " + folded + " "
	for _, phrase := range chromePhrases {
		if strings.Contains(padded, " "+phrase+" ") {
			return true
		}
	}
	return false
}

// withPause гарантирует паузу в конце блока (заголовки превращаются в отдельные предложения)
func withPause(line string) string {
	trimmed := strings.TrimRight(line, ",- ")
	if r, _ := utf8.DecodeLastRuneInString(trimmed); strings.ContainsRune(terminalPunct, r) {
		return trimmed
	}
	return trimmed + "."
}

// Fold приводит строку к нижнему регистру без диакритики и знаков: "¿Le ha resultado útil?" -> "le ha resultado util"
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	stripped = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, stripped)
	return strings.Join(strings.Fields(stripped), " ")
}
