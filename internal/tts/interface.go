package tts

import (
	"context"

	"learn-audio/pkg/models"
)

// TTSService представляет интерфейс для Text-to-Speech сервиса
type TTSService interface {
	// SynthesizeText преобразует текст в аудио (MP3)
	SynthesizeText(ctx context.Context, req models.SynthesisRequest) ([]byte, error)
}

// Backend - конкретный движок синтеза с ограничениями одного вызова
type Backend interface {
	TTSService
	// Name возвращает имя движка для логов и метрик
	Name() string
	// MaxChars возвращает максимальную длину текста одного вызова
	MaxChars() int
	// NativeRate сообщает, применяет ли движок скорость сам
	NativeRate() bool
}

// Encoder перекодирует аудио движка в MP3
type Encoder interface {
	EncodeMP3(ctx context.Context, input []byte) ([]byte, error)
}

// TempoChanger меняет скорость готового MP3 без изменения высоты тона
type TempoChanger interface {
	ChangeTempo(ctx context.Context, mp3 []byte, speed float64) ([]byte, error)
}

// AudioProcessor объединяет операции ffmpeg, нужные движкам
type AudioProcessor interface {
	Encoder
	TempoChanger
}
