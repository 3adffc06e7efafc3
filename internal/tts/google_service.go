package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"learn-audio/pkg/models"

	"go.uber.org/zap"
)

// GoogleService предоставляет онлайн синтез через Google Translate TTS (тот же endpoint, что у gTTS)
type GoogleService struct {
	logger     *zap.Logger
	baseURL    string
	maxChars   int
	userAgent  string
	httpClient *http.Client
}

// NewGoogleService создает новый онлайн TTS сервис
func NewGoogleService(logger *zap.Logger, baseURL string, maxChars int, timeout time.Duration) *GoogleService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GoogleService{
		logger:    logger,
		baseURL:   strings.TrimRight(baseURL, "/"),
		maxChars:  maxChars,
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *GoogleService) Name() string     { return "google" }
func (s *GoogleService) MaxChars() int    { return s.maxChars }
func (s *GoogleService) NativeRate() bool { return false }

// SynthesizeText преобразует текст в MP3 через Google Translate TTS
func (s *GoogleService) SynthesizeText(ctx context.Context, req models.SynthesisRequest) ([]byte, error) {
	length := len([]rune(req.Text))
	if s.maxChars > 0 && length > s.maxChars {
		return nil, models.NewError(models.ErrServiceUnavailable,
			fmt.Sprintf("Google TTS не принимает текст длиннее %d символов (получено %d)", s.maxChars, length), nil)
	}

	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", req.Language)
	params.Set("q", req.Text)
	params.Set("total", "1")
	params.Set("idx", "0")
	params.Set("textlen", strconv.Itoa(length))

	endpoint := s.baseURL + "/translate_tts?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	httpReq.Header.Set("User-Agent", s.userAgent)
	httpReq.Header.Set("Referer", s.baseURL+"/")

	s.logger.Debug("🎵 отправляем запрос к Google TTS",
		zap.String("language", req.Language),
		zap.Int("text_length", length))

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, models.NewError(models.ErrServiceUnavailable, "Google TTS недоступен", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, models.NewError(models.ErrServiceUnavailable,
			fmt.Sprintf("Google TTS вернул ошибку %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewError(models.ErrServiceUnavailable, "ошибка чтения аудио данных", err)
	}
	if len(audioData) == 0 {
		return nil, models.NewError(models.ErrServiceUnavailable, "Google TTS вернул пустое аудио", nil)
	}

	return audioData, nil
}
