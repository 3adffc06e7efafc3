package tts

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"learn-audio/internal/text"
	"learn-audio/pkg/models"

	"go.uber.org/zap"
)

// Synthesis - результат озвучки одного текста
type Synthesis struct {
	Data    []byte
	Chunks  int
	Backend string
	Elapsed time.Duration
}

// Synthesizer озвучивает текст любой длины: делит его на части по лимиту движка,
// вызывает движок последовательно и склеивает MP3 сегменты по порядку
type Synthesizer struct {
	backend Backend
	tempo   TempoChanger
	logger  *zap.Logger
}

// NewSynthesizer создает новый синтезатор
func NewSynthesizer(backend Backend, tempo TempoChanger, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		backend: backend,
		tempo:   tempo,
		logger:  logger,
	}
}

// Backend возвращает используемый движок
func (s *Synthesizer) Backend() Backend {
	return s.backend
}

// Synthesize озвучивает текст запроса
func (s *Synthesizer) Synthesize(ctx context.Context, req models.SynthesisRequest) (*Synthesis, error) {
	if req.Speed <= 0 {
		return nil, fmt.Errorf("скорость должна быть положительной: %.2f", req.Speed)
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, models.NewError(models.ErrEmptyContent, "нечего озвучивать", nil)
	}

	start := time.Now()
	chunks := text.SplitIntoChunks(req.Text, s.backend.MaxChars())

	s.logger.Info("🎵 синтезируем речь",
		zap.String("backend", s.backend.Name()),
		zap.String("language", req.Language),
		zap.Float64("speed", req.Speed),
		zap.Int("chunks", len(chunks)),
		zap.Int("text_length", len([]rune(req.Text))))

	callSpeed := req.Speed
	if !s.backend.NativeRate() {
		callSpeed = 1.0
	}

	var audio bytes.Buffer
	for i, chunk := range chunks {
		part, err := s.backend.SynthesizeText(ctx, models.SynthesisRequest{
			Text:     chunk,
			Language: req.Language,
			Voice:    req.Voice,
			Speed:    callSpeed,
		})
		if err != nil {
			return nil, fmt.Errorf("часть %d из %d: %w", i+1, len(chunks), err)
		}
		audio.Write(part)

		s.logger.Debug("🎵 часть озвучена",
			zap.Int("chunk", i+1),
			zap.Int("total", len(chunks)),
			zap.Int("audio_size", len(part)))
	}

	data := audio.Bytes()
	if !s.backend.NativeRate() && req.Speed != 1.0 {
		var err error
		data, err = s.tempo.ChangeTempo(ctx, data, req.Speed)
		if err != nil {
			return nil, fmt.Errorf("ошибка изменения скорости: %w", err)
		}
	}

	return &Synthesis{
		Data:    data,
		Chunks:  len(chunks),
		Backend: s.backend.Name(),
		Elapsed: time.Since(start),
	}, nil
}
