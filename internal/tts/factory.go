package tts

import (
	"fmt"

	"learn-audio/internal/config"
	"learn-audio/pkg/models"

	"go.uber.org/zap"
)

// NewBackend создает движок синтеза на основе типа голоса и конфигурации
func NewBackend(cfg config.TTSConfig, voice models.Voice, processor AudioProcessor, logger *zap.Logger) (Backend, error) {
	switch voice {
	case models.VoiceOffline:
		return NewEspeakService(logger, cfg.EspeakPath, cfg.LocalMaxChars, cfg.Timeout, processor), nil
	case models.VoiceOnline:
		switch cfg.RemoteProvider {
		case "google", "":
			return NewGoogleService(logger, cfg.GoogleURL, cfg.GoogleMaxChars, cfg.Timeout), nil
		case "piper":
			return NewPiperService(logger, cfg.PiperURL, cfg.PiperMaxChars, cfg.Timeout, processor), nil
		default:
			return nil, fmt.Errorf("неподдерживаемый TTS провайдер: %s. Поддерживаются: 'google', 'piper'", cfg.RemoteProvider)
		}
	default:
		return nil, fmt.Errorf("неподдерживаемый тип голоса: %s. Поддерживаются: 'offline', 'online'", voice)
	}
}
