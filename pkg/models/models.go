package models

import (
	"fmt"
	"strings"
	"time"
)

// Voice выбирает движок синтеза речи
type Voice string

// Поддерживаемые движки
const (
	VoiceOffline Voice = "offline" // локальный движок, без сети
	VoiceOnline  Voice = "online"  // удаленный сервис синтеза
)

// ParseVoice разбирает значение флага --voice
func ParseVoice(s string) (Voice, error) {
	switch Voice(strings.ToLower(strings.TrimSpace(s))) {
	case VoiceOffline, "local":
		return VoiceOffline, nil
	case VoiceOnline, "remote":
		return VoiceOnline, nil
	default:
		return "", fmt.Errorf("неизвестный тип голоса %q: поддерживаются offline, online", s)
	}
}

// SupportedLanguages - языки озвучки и их названия
var SupportedLanguages = map[string]string{
	"es": "Español",
	"en": "English",
	"fr": "Français",
	"de": "Deutsch",
	"it": "Italiano",
	"pt": "Português",
}

// LanguageCodes возвращает коды поддерживаемых языков в стабильном порядке
func LanguageCodes() []string {
	return []string{"es", "en", "fr", "de", "it", "pt"}
}

// Course представляет учебный модуль Microsoft Learn
type Course struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Slug  string `json:"slug"` // последний сегмент пути URL
	Units []Unit `json:"units"`
}

// Unit представляет одну страницу (юнит) модуля
type Unit struct {
	Ordinal int    `json:"ordinal"` // позиция в модуле, начиная с 1
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"` // сырой HTML, после нормализации - чистый текст
	Clean   bool   `json:"clean"`
}

// SynthesisRequest содержит параметры одного вызова синтеза
type SynthesisRequest struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Voice    Voice   `json:"voice"`
	Speed    float64 `json:"speed"`
}

// AudioArtifact - закодированное аудио одного юнита (или всего модуля)
type AudioArtifact struct {
	Ordinal  int    `json:"ordinal"`
	Filename string `json:"filename"`
	Format   string `json:"format"`
	Data     []byte `json:"-"`
}

// RunState - состояние конвейера
type RunState int

// Состояния конвейера в порядке прохождения
const (
	StateFetching RunState = iota
	StateNormalizing
	StateSynthesizing
	StateWriting
	StateDone
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateNormalizing:
		return "normalizing"
	case StateSynthesizing:
		return "synthesizing"
	case StateWriting:
		return "writing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Run - запись истории одного запуска
type Run struct {
	ID         int64      `json:"id" db:"id"`
	URL        string     `json:"url" db:"url"`
	Title      string     `json:"title" db:"title"`
	Language   string     `json:"language" db:"language"`
	Voice      string     `json:"voice" db:"voice"`
	Speed      float64    `json:"speed" db:"speed"`
	State      string     `json:"state" db:"state"`
	Error      *string    `json:"error" db:"error"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at" db:"finished_at"`
}

// RunFile - файл, записанный в рамках запуска
type RunFile struct {
	ID        int64     `json:"id" db:"id"`
	RunID     int64     `json:"run_id" db:"run_id"`
	Ordinal   int       `json:"ordinal" db:"ordinal"`
	UnitTitle string    `json:"unit_title" db:"unit_title"`
	Path      string    `json:"path" db:"path"`
	Bytes     int64     `json:"bytes" db:"bytes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
