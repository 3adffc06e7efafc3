package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"learn-audio/pkg/models"

	"go.uber.org/zap"
)

// PiperService предоставляет функциональность Text-to-Speech через Piper TTS API
type PiperService struct {
	logger   *zap.Logger
	baseURL  string
	maxChars int
	encoder  Encoder
	client   *http.Client
}

// NewPiperService создает новый Piper TTS сервис
func NewPiperService(logger *zap.Logger, baseURL string, maxChars int, timeout time.Duration, encoder Encoder) *PiperService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &PiperService{
		logger:   logger,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxChars: maxChars,
		encoder:  encoder,
		client: &http.Client{
			Timeout: timeout, // Таймаут для генерации аудио
		},
	}
}

func (s *PiperService) Name() string     { return "piper" }
func (s *PiperService) MaxChars() int    { return s.maxChars }
func (s *PiperService) NativeRate() bool { return false }

// SynthesizeText преобразует текст в MP3 через Piper TTS
func (s *PiperService) SynthesizeText(ctx context.Context, req models.SynthesisRequest) ([]byte, error) {
	if length := len([]rune(req.Text)); s.maxChars > 0 && length > s.maxChars {
		return nil, models.NewError(models.ErrServiceUnavailable,
			fmt.Sprintf("Piper TTS не принимает текст длиннее %d символов (получено %d)", s.maxChars, length), nil)
	}

	wav, err := s.generateAudio(ctx, req)
	if err != nil {
		return nil, err
	}

	mp3, err := s.encoder.EncodeMP3(ctx, wav)
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования аудио Piper: %w", err)
	}

	return mp3, nil
}

// generateAudio отправляет запрос к Piper TTS API и получает WAV
func (s *PiperService) generateAudio(ctx context.Context, req models.SynthesisRequest) ([]byte, error) {
	url := fmt.Sprintf("%s/synthesize-raw", s.baseURL)

	// Создаем multipart form data
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("text", req.Text)
	_ = writer.WriteField("language", req.Language)
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	s.logger.Debug("🎵 отправляем запрос к Piper TTS",
		zap.String("url", url),
		zap.Int("text_length", len(req.Text)))

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, models.NewError(models.ErrServiceUnavailable, "Piper TTS недоступен", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, models.NewError(models.ErrServiceUnavailable,
			fmt.Sprintf("неожиданный статус от Piper TTS: %d, тело: %s", resp.StatusCode, respBody), nil)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewError(models.ErrServiceUnavailable, "ошибка чтения аудио данных", err)
	}

	return audioData, nil
}
