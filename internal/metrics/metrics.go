package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Metrics содержит все метрики запуска в собственном реестре.
// Метрики сохраняются в текстовый файл для textfile collector node_exporter.
type Metrics struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// Счетчики
	runs       *prometheus.CounterVec
	units      *prometheus.CounterVec
	chunks     *prometheus.CounterVec
	audioBytes prometheus.Counter

	// Гистограммы
	stageDuration     *prometheus.HistogramVec
	synthesisDuration *prometheus.HistogramVec

	// Gauge метрики
	lastRunTimestamp prometheus.Gauge
	lastRunDuration  prometheus.Gauge
}

// New создает новый экземпляр метрик
func New(logger *zap.Logger) *Metrics {
	m := &Metrics{
		logger:   logger,
		registry: prometheus.NewRegistry(),

		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "learn_audio_runs_total",
				Help: "Количество запусков конвейера",
			},
			[]string{"status"}, // done, failed
		),

		units: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "learn_audio_units_total",
				Help: "Количество обработанных юнитов",
			},
			[]string{"status"}, // done, failed
		),

		chunks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "learn_audio_tts_chunks_total",
				Help: "Количество вызовов движка синтеза",
			},
			[]string{"backend"}, // espeak, google, piper
		),

		audioBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "learn_audio_audio_bytes_total",
				Help: "Объем записанного аудио в байтах",
			},
		),

		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "learn_audio_stage_duration_seconds",
				Help:    "Длительность этапов конвейера в секундах",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"}, // fetching, normalizing, synthesizing, writing
		),

		synthesisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "learn_audio_synthesis_duration_seconds",
				Help:    "Время синтеза одного юнита в секундах",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
			},
			[]string{"backend"},
		),

		lastRunTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "learn_audio_last_run_timestamp_seconds",
				Help: "Timestamp завершения последнего запуска",
			},
		),

		lastRunDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "learn_audio_last_run_duration_seconds",
				Help: "Длительность последнего запуска в секундах",
			},
		),
	}

	m.registry.MustRegister(
		m.runs,
		m.units,
		m.chunks,
		m.audioBytes,
		m.stageDuration,
		m.synthesisDuration,
		m.lastRunTimestamp,
		m.lastRunDuration,
	)

	return m
}

// Registry возвращает реестр метрик
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordStage записывает длительность этапа
func (m *Metrics) RecordStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordUnit записывает результат обработки юнита
func (m *Metrics) RecordUnit(success bool) {
	m.units.WithLabelValues(status(success)).Inc()
}

// RecordSynthesis записывает вызовы движка синтеза
func (m *Metrics) RecordSynthesis(backend string, chunks int, d time.Duration) {
	m.chunks.WithLabelValues(backend).Add(float64(chunks))
	m.synthesisDuration.WithLabelValues(backend).Observe(d.Seconds())
}

// RecordAudio записывает объем сохраненного аудио
func (m *Metrics) RecordAudio(bytes int) {
	m.audioBytes.Add(float64(bytes))
}

// RecordRun записывает итог запуска
func (m *Metrics) RecordRun(success bool, d time.Duration) {
	m.runs.WithLabelValues(status(success)).Inc()
	m.lastRunTimestamp.SetToCurrentTime()
	m.lastRunDuration.Set(d.Seconds())

	m.logger.Debug("📊 метрики запуска записаны",
		zap.Bool("success", success),
		zap.Duration("duration", d))
}

// WriteTextfile сохраняет метрики в формате Prometheus text exposition
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		m.logger.Error("❌ ошибка записи метрик", zap.String("path", path), zap.Error(err))
		return err
	}
	m.logger.Info("📊 метрики сохранены", zap.String("path", path))
	return nil
}

func status(success bool) string {
	if success {
		return "done"
	}
	return "failed"
}
