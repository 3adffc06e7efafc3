package main

import (
	"context"
	"fmt"

	"learn-audio/internal/audio"
	"learn-audio/internal/config"
	"learn-audio/internal/metrics"
	"learn-audio/internal/migrations"
	"learn-audio/internal/output"
	"learn-audio/internal/pipeline"
	"learn-audio/internal/publish"
	"learn-audio/internal/scraper"
	"learn-audio/internal/store"
	"learn-audio/internal/text"
	"learn-audio/internal/tts"
	"learn-audio/pkg/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app связывает компоненты для одной команды
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	processor *audio.Processor
	metrics   *metrics.Metrics
	service   *pipeline.Service
	store     store.Store
}

// newApp загружает конфигурацию, создает логгер и собирает конвейер
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := initLogger(cfg, verbose)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации логгера: %w", err)
	}

	logger.Info("🚀 запуск learn-audio",
		zap.String("command", cmd.Name()),
		zap.String("language", cfg.TTS.Language),
		zap.String("voice", cfg.TTS.Voice),
		zap.Float64("speed", cfg.TTS.Speed),
		zap.Int("workers", cfg.App.Workers))

	processor := audio.NewProcessor(cfg.Audio, logger)
	metricsSystem := metrics.New(logger)

	speakers := func(v models.Voice) (pipeline.Speaker, error) {
		backend, err := tts.NewBackend(cfg.TTS, v, processor, logger)
		if err != nil {
			return nil, err
		}
		return tts.NewSynthesizer(backend, processor, logger), nil
	}

	service := pipeline.NewService(
		cfg.Output.Dir,
		scraper.NewClient(cfg.Scraper, logger),
		text.NewNormalizer(logger),
		speakers,
		output.NewFileStore(logger),
		metricsSystem,
		logger,
	)

	a := &app{
		cfg:       cfg,
		logger:    logger,
		processor: processor,
		metrics:   metricsSystem,
		service:   service,
	}

	if cfg.Database.Enabled {
		if err := migrations.RunMigrations(cfg.Database, logger); err != nil {
			return nil, fmt.Errorf("ошибка применения миграций: %w", err)
		}
		st, err := store.NewStore(cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к базе истории: %w", err)
		}
		a.store = st
		service.SetHistory(st.History())
	}

	publishers, err := publish.NewPublishers(ctx, cfg, logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("ошибка настройки публикации: %w", err)
	}
	service.SetPublishers(publishers)

	return a, nil
}

// options собирает параметры запуска из конфигурации
func (a *app) options() (pipeline.Options, error) {
	v, err := models.ParseVoice(a.cfg.TTS.Voice)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Language:   a.cfg.TTS.Language,
		Voice:      v,
		Speed:      a.cfg.TTS.Speed,
		OutputName: outputName,
		Combined:   a.cfg.Output.Combined,
		Archive:    a.cfg.Output.Archive,
		Workers:    a.cfg.App.Workers,
	}, nil
}

// checkTools проверяет наличие ffmpeg, если он понадобится для выбранных параметров
func (a *app) checkTools(opts pipeline.Options) error {
	needsFFmpeg := opts.Voice == models.VoiceOffline ||
		a.cfg.TTS.RemoteProvider == "piper" ||
		opts.Speed != 1.0
	if !needsFFmpeg {
		return nil
	}
	return a.processor.Available()
}

// finish сохраняет метрики запуска и освобождает ресурсы
func (a *app) finish() {
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.TextfilePath); err != nil {
		a.logger.Warn("⚠️ не удалось сохранить метрики", zap.Error(err))
	}
	a.close()
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	a.logger.Sync()
}
