package tts

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"learn-audio/pkg/models"

	"go.uber.org/zap"
)

// Диапазон скорости речи espeak-ng (слов в минуту)
const (
	espeakBaseRate = 200
	espeakMinRate  = 80
	espeakMaxRate  = 450
)

// EspeakService предоставляет локальный синтез речи через espeak-ng, без сети
type EspeakService struct {
	logger    *zap.Logger
	path      string
	maxChars  int
	timeout   time.Duration
	processor AudioProcessor
}

// NewEspeakService создает новый локальный TTS сервис
func NewEspeakService(logger *zap.Logger, path string, maxChars int, timeout time.Duration, processor AudioProcessor) *EspeakService {
	if path == "" {
		path = "espeak-ng"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &EspeakService{
		logger:    logger,
		path:      path,
		maxChars:  maxChars,
		timeout:   timeout,
		processor: processor,
	}
}

func (s *EspeakService) Name() string     { return "espeak" }
func (s *EspeakService) MaxChars() int    { return s.maxChars }
func (s *EspeakService) NativeRate() bool { return true }

// SynthesizeText преобразует текст в MP3 через espeak-ng и ffmpeg
func (s *EspeakService) SynthesizeText(ctx context.Context, req models.SynthesisRequest) ([]byte, error) {
	if err := s.checkEspeak(); err != nil {
		return nil, err
	}
	if s.maxChars > 0 && len([]rune(req.Text)) > s.maxChars {
		return nil, fmt.Errorf("текст длиннее лимита локального движка: %d > %d", len([]rune(req.Text)), s.maxChars)
	}

	rate, rest := espeakRate(req.Speed)

	s.logger.Debug("🎵 генерируем аудио через espeak-ng",
		zap.String("language", req.Language),
		zap.Int("rate", rate),
		zap.Int("text_length", len(req.Text)))

	// Создаем контекст с таймаутом
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	wav, err := s.generateAudio(ctx, req.Text, req.Language, rate)
	if err != nil {
		return nil, err
	}

	mp3, err := s.processor.EncodeMP3(ctx, wav)
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования аудио espeak: %w", err)
	}

	// Скорость вне диапазона espeak-ng догоняем фильтром atempo
	if math.Abs(rest-1.0) > 1e-9 {
		mp3, err = s.processor.ChangeTempo(ctx, mp3, rest)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Debug("🎵 аудио успешно сгенерировано", zap.Int("audio_size", len(mp3)))

	return mp3, nil
}

// checkEspeak проверяет, что espeak-ng установлен
func (s *EspeakService) checkEspeak() error {
	if _, err := exec.LookPath(s.path); err != nil {
		return models.NewError(models.ErrServiceUnavailable, "espeak-ng не найден", err)
	}
	return nil
}

// generateAudio запускает espeak-ng и возвращает WAV
func (s *EspeakService) generateAudio(ctx context.Context, text, language string, rate int) ([]byte, error) {
	cmd := exec.CommandContext(ctx, s.path,
		"-v", language,
		"-s", strconv.Itoa(rate),
		"--stdout",
		"--stdin")

	var stdout, stderr bytes.Buffer
	cmd.Stdin = strings.NewReader(text)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		s.logger.Error("❌ ошибка выполнения espeak-ng",
			zap.Error(err),
			zap.String("stderr", stderr.String()))
		return nil, models.NewError(models.ErrServiceUnavailable, "ошибка выполнения espeak-ng", err)
	}
	if stdout.Len() == 0 {
		return nil, models.NewError(models.ErrServiceUnavailable, "espeak-ng вернул пустое аудио: "+strings.TrimSpace(stderr.String()), nil)
	}

	return stdout.Bytes(), nil
}

// espeakRate переводит множитель скорости в слова в минуту.
// Вторым значением возвращается остаток множителя, который движок применить не может.
func espeakRate(speed float64) (int, float64) {
	if speed <= 0 {
		speed = 1.0
	}
	wanted := float64(espeakBaseRate) * speed
	switch {
	case wanted > espeakMaxRate:
		return espeakMaxRate, wanted / espeakMaxRate
	case wanted < espeakMinRate:
		return espeakMinRate, wanted / espeakMinRate
	}
	return int(math.Round(wanted)), 1.0
}
