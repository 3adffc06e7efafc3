package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"learn-audio/internal/config"
	"learn-audio/internal/store"

	"go.uber.org/zap"
)

func main() {
	var (
		days   = flag.Int("days", 30, "Удалить запуски старше указанного количества дней")
		dryRun = flag.Bool("dry-run", false, "Показать что будет удалено без фактического удаления")
	)
	flag.Parse()

	// Инициализация логгера
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Ошибка инициализации логгера:", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Ошибка загрузки конфигурации", zap.Error(err))
	}
	if !cfg.Database.Enabled {
		logger.Fatal("История запусков отключена (HISTORY_ENABLED=false)")
	}

	st, err := store.NewStore(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Ошибка подключения к базе данных", zap.Error(err))
	}
	defer st.Close()

	if err := cleanupRuns(context.Background(), st.History(), *days, *dryRun, logger); err != nil {
		logger.Fatal("Ошибка очистки истории", zap.Error(err))
	}

	logger.Info("Очистка истории завершена успешно")
}

// cleanupRuns удаляет запуски (и их файлы через ON DELETE CASCADE) старше days дней
func cleanupRuns(ctx context.Context, history store.HistoryRepository, days int, dryRun bool, logger *zap.Logger) error {
	if days < 1 {
		return fmt.Errorf("-days должен быть не меньше 1, получено %d", days)
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	count, err := history.CountOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("ошибка подсчета запусков: %w", err)
	}

	if count == 0 {
		logger.Info("Нет запусков для удаления", zap.Time("cutoff", cutoff))
		return nil
	}

	if dryRun {
		logger.Info("DRY RUN: Будет удалено запусков",
			zap.Int64("to_delete", count),
			zap.Time("cutoff", cutoff))
		return nil
	}

	deleted, err := history.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("ошибка удаления запусков: %w", err)
	}

	logger.Info("Удалены старые запуски",
		zap.Int64("deleted_count", deleted),
		zap.Int("days", days))

	return nil
}
