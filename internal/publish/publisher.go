package publish

import (
	"context"
	"errors"
	"fmt"

	"learn-audio/internal/config"

	"go.uber.org/zap"
)

// Batch - результат одного запуска, который нужно доставить
type Batch struct {
	Name  string   // имя модуля (каталог курса)
	Title string   // заголовок модуля для подписи
	Files []string // локальные пути в порядке юнитов
}

// Publisher доставляет готовые файлы во внешнее хранилище
type Publisher interface {
	Name() string
	Publish(ctx context.Context, batch Batch) error
}

// NewPublishers создает включенные в конфигурации способы доставки
func NewPublishers(ctx context.Context, cfg *config.Config, logger *zap.Logger) ([]Publisher, error) {
	var publishers []Publisher

	if cfg.Telegram.Enabled {
		p, err := NewTelegramPublisher(cfg.Telegram, logger)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		publishers = append(publishers, p)
	}

	if cfg.SFTP.Enabled {
		p, err := NewSFTPPublisher(cfg.SFTP, logger)
		if err != nil {
			return nil, fmt.Errorf("sftp: %w", err)
		}
		publishers = append(publishers, p)
	}

	if cfg.Drive.Enabled {
		p, err := NewDrivePublisher(ctx, cfg.Drive, logger)
		if err != nil {
			return nil, fmt.Errorf("drive: %w", err)
		}
		publishers = append(publishers, p)
	}

	return publishers, nil
}

// PublishAll отправляет пакет всем получателям и собирает ошибки
func PublishAll(ctx context.Context, publishers []Publisher, batch Batch, logger *zap.Logger) error {
	var errs []error
	for _, p := range publishers {
		logger.Info("📤 публикуем файлы",
			zap.String("publisher", p.Name()),
			zap.Int("files", len(batch.Files)))

		if err := p.Publish(ctx, batch); err != nil {
			logger.Error("❌ ошибка публикации",
				zap.String("publisher", p.Name()),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
