package publish

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"learn-audio/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramPublisher отправляет аудио в чат через Telegram Bot API
type TelegramPublisher struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// NewTelegramPublisher создает публикатор с официальным endpoint Bot API
func NewTelegramPublisher(cfg config.TelegramConfig, logger *zap.Logger) (*TelegramPublisher, error) {
	return NewTelegramPublisherWithEndpoint(cfg, tgbotapi.APIEndpoint, &http.Client{Timeout: 2 * time.Minute}, logger)
}

// NewTelegramPublisherWithEndpoint создает публикатор с заданным endpoint (локальный Bot API сервер, тесты)
func NewTelegramPublisherWithEndpoint(cfg config.TelegramConfig, endpoint string, client *http.Client, logger *zap.Logger) (*TelegramPublisher, error) {
	if cfg.BotToken == "" || cfg.ChatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID не установлены")
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания бота: %w", err)
	}

	logger.Info("🤖 бот авторизован", zap.String("username", bot.Self.UserName))

	return &TelegramPublisher{
		bot:    bot,
		chatID: cfg.ChatID,
		logger: logger,
	}, nil
}

func (p *TelegramPublisher) Name() string { return "telegram" }

// Publish отправляет файлы по одному: MP3 как аудио, остальное как документ
func (p *TelegramPublisher) Publish(ctx context.Context, batch Batch) error {
	for i, path := range batch.Files {
		if err := ctx.Err(); err != nil {
			return err
		}

		var msg tgbotapi.Chattable
		file := tgbotapi.FilePath(path)
		if strings.EqualFold(filepath.Ext(path), ".mp3") {
			audio := tgbotapi.NewAudio(p.chatID, file)
			audio.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			audio.Performer = batch.Title
			if i == 0 {
				audio.Caption = "🎧 " + batch.Title
			}
			msg = audio
		} else {
			doc := tgbotapi.NewDocument(p.chatID, file)
			doc.Caption = "📦 " + batch.Title
			msg = doc
		}

		if _, err := p.bot.Send(msg); err != nil {
			return fmt.Errorf("ошибка отправки %s: %w", filepath.Base(path), err)
		}

		p.logger.Debug("📨 файл отправлен в Telegram",
			zap.String("file", filepath.Base(path)),
			zap.Int64("chat_id", p.chatID))
	}
	return nil
}
