package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"learn-audio/internal/metrics"
	"learn-audio/internal/output"
	"learn-audio/internal/publish"
	"learn-audio/internal/text"
	"learn-audio/internal/tts"
	"learn-audio/pkg/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fetcher загружает модуль и его юниты
type Fetcher interface {
	FetchCourse(ctx context.Context, rawURL, lang string) (*models.Course, error)
	FetchIndex(ctx context.Context, rawURL, lang string) (*models.Course, error)
	FetchUnit(ctx context.Context, unit *models.Unit, lang string) error
}

// Speaker озвучивает текст произвольной длины
type Speaker interface {
	Synthesize(ctx context.Context, req models.SynthesisRequest) (*tts.Synthesis, error)
}

// SpeakerFactory создает синтезатор для выбранного голоса
type SpeakerFactory func(voice models.Voice) (Speaker, error)

// History сохраняет историю запусков
type History interface {
	StartRun(ctx context.Context, run *models.Run) error
	RecordFile(ctx context.Context, file *models.RunFile) error
	FinishRun(ctx context.Context, runID int64, state models.RunState, runErr error) error
}

// Event - переход юнита в новое состояние
type Event struct {
	Ordinal int // 0 - событие модуля целиком
	Total   int
	Title   string
	State   models.RunState
	Err     error
}

// Observer получает все переходы состояний.
// При Workers > 1 вызывается из нескольких горутин.
type Observer func(Event)

// Options - параметры одного запуска
type Options struct {
	Language   string
	Voice      models.Voice
	Speed      float64
	OutputName string
	Combined   bool
	Archive    bool
	Workers    int
}

// Result - итог запуска
type Result struct {
	Course   *models.Course
	Name     string
	Dir      string   // каталог модуля (в режиме Combined - OUTPUT_DIR)
	Files    []string // записанные файлы в порядке юнитов
	Archive  string
	Bytes    int64
	Duration time.Duration
}

// Service выполняет конвейер: загрузка -> нормализация -> синтез -> запись
type Service struct {
	outputDir  string
	fetcher    Fetcher
	normalizer *text.Normalizer
	speakers   SpeakerFactory
	files      *output.FileStore
	metrics    *metrics.Metrics
	history    History
	publishers []publish.Publisher
	observer   Observer
	logger     *zap.Logger
}

// NewService создает новый конвейер
func NewService(
	outputDir string,
	fetcher Fetcher,
	normalizer *text.Normalizer,
	speakers SpeakerFactory,
	files *output.FileStore,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		outputDir:  outputDir,
		fetcher:    fetcher,
		normalizer: normalizer,
		speakers:   speakers,
		files:      files,
		metrics:    m,
		history:    nopHistory{},
		observer:   func(Event) {},
		logger:     logger,
	}
}

// SetHistory включает запись истории запусков
func (s *Service) SetHistory(h History) {
	if h != nil {
		s.history = h
	}
}

// SetPublishers задает получателей готовых файлов
func (s *Service) SetPublishers(publishers []publish.Publisher) {
	s.publishers = publishers
}

// SetObserver задает обработчик переходов состояний
func (s *Service) SetObserver(o Observer) {
	if o != nil {
		s.observer = o
	}
}

// unitOutcome - результат обработки одного юнита
type unitOutcome struct {
	data []byte
	path string
}

// Run озвучивает модуль по адресу rawURL.
// Первая ошибка останавливает запуск, уже записанные файлы остаются на диске.
func (s *Service) Run(ctx context.Context, rawURL string, opts Options) (*Result, error) {
	start := time.Now()
	opts = withDefaults(opts)

	speaker, err := s.speakers(opts.Voice)
	if err != nil {
		return nil, err
	}

	s.observer(Event{State: models.StateFetching})
	fetchStart := time.Now()
	course, err := s.fetcher.FetchIndex(ctx, rawURL, opts.Language)
	s.metrics.RecordStage(models.StateFetching.String(), time.Since(fetchStart))
	if err != nil {
		s.observer(Event{State: models.StateFailed, Err: err})
		s.metrics.RecordRun(false, time.Since(start))
		return nil, err
	}

	name := courseName(opts.OutputName, course)
	result := &Result{
		Course: course,
		Name:   name,
		Dir:    filepath.Join(s.outputDir, name),
	}
	if opts.Combined {
		result.Dir = s.outputDir
	}

	run := &models.Run{
		URL:       course.URL,
		Title:     course.Title,
		Language:  opts.Language,
		Voice:     string(opts.Voice),
		Speed:     opts.Speed,
		StartedAt: start,
	}
	if err := s.history.StartRun(ctx, run); err != nil {
		s.logger.Warn("⚠️ не удалось сохранить запуск в историю", zap.Error(err))
	}

	s.logger.Info("🚀 начинаем озвучку модуля",
		zap.String("title", course.Title),
		zap.String("name", name),
		zap.Int("units", len(course.Units)),
		zap.String("voice", string(opts.Voice)),
		zap.Float64("speed", opts.Speed),
		zap.Int("workers", opts.Workers))

	outcomes, err := s.processUnits(ctx, speaker, course, result.Dir, run.ID, opts)
	collect(result, outcomes)
	if err == nil && opts.Combined {
		err = s.writeCombined(ctx, course, outcomes, result, run.ID)
	}
	if err == nil && opts.Archive {
		err = s.writeArchive(ctx, result)
	}
	if err == nil && len(s.publishers) > 0 {
		err = publish.PublishAll(ctx, s.publishers, publish.Batch{
			Name:  result.Name,
			Title: course.Title,
			Files: publishedFiles(result),
		}, s.logger)
		if err != nil {
			err = fmt.Errorf("ошибка публикации: %w", err)
		}
	}

	result.Duration = time.Since(start)
	state := models.StateDone
	if err != nil {
		state = models.StateFailed
	}

	// Контекст запуска может быть уже отменен, историю записываем в любом случае
	if herr := s.history.FinishRun(context.WithoutCancel(ctx), run.ID, state, err); herr != nil {
		s.logger.Warn("⚠️ не удалось завершить запись истории", zap.Error(herr))
	}
	s.metrics.RecordRun(err == nil, result.Duration)

	if err != nil {
		s.logger.Error("❌ запуск завершился ошибкой",
			zap.String("title", course.Title),
			zap.Int("files_written", len(result.Files)),
			zap.NamedError("kind", models.KindOf(err)),
			zap.Error(err))
		return result, err
	}

	s.observer(Event{Total: len(course.Units), Title: course.Title, State: models.StateDone})
	s.logger.Info("✅ модуль озвучен",
		zap.String("title", course.Title),
		zap.Int("files", len(result.Files)),
		zap.Int64("bytes", result.Bytes),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// processUnits обрабатывает юниты с ограничением параллельности.
// Результаты раскладываются по номерам юнитов, порядок не зависит от порядка завершения.
func (s *Service) processUnits(ctx context.Context, speaker Speaker, course *models.Course, dir string, runID int64, opts Options) ([]*unitOutcome, error) {
	outcomes := make([]*unitOutcome, len(course.Units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i := range course.Units {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// g.Go ждет свободный слот, за это время группа могла быть отменена
			if gctx.Err() != nil {
				return nil
			}
			out, err := s.processUnit(gctx, speaker, course, &course.Units[i], dir, runID, opts)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, ctx.Err()
}

// processUnit проводит один юнит через все состояния
func (s *Service) processUnit(ctx context.Context, speaker Speaker, course *models.Course, unit *models.Unit, dir string, runID int64, opts Options) (*unitOutcome, error) {
	total := len(course.Units)
	state := models.StateFetching
	stageStart := time.Now()

	enter := func(next models.RunState) {
		s.metrics.RecordStage(state.String(), time.Since(stageStart))
		state = next
		stageStart = time.Now()
		s.observer(Event{Ordinal: unit.Ordinal, Total: total, Title: unit.Title, State: next})
	}
	fail := func(err error) (*unitOutcome, error) {
		s.metrics.RecordUnit(false)
		uerr := &models.UnitError{
			Ordinal: unit.Ordinal,
			Title:   unit.Title,
			URL:     unit.URL,
			State:   state,
			Err:     err,
		}
		s.observer(Event{Ordinal: unit.Ordinal, Total: total, Title: unit.Title, State: models.StateFailed, Err: uerr})
		return nil, uerr
	}

	s.observer(Event{Ordinal: unit.Ordinal, Total: total, State: models.StateFetching})
	if err := s.fetcher.FetchUnit(ctx, unit, opts.Language); err != nil {
		return fail(err)
	}

	enter(models.StateNormalizing)
	clean, err := s.normalizer.Normalize(unit.Content)
	if err != nil {
		return fail(err)
	}
	unit.Content = clean
	unit.Clean = true

	enter(models.StateSynthesizing)
	synthesis, err := speaker.Synthesize(ctx, models.SynthesisRequest{
		Text:     clean,
		Language: opts.Language,
		Voice:    opts.Voice,
		Speed:    opts.Speed,
	})
	if err != nil {
		return fail(err)
	}
	s.metrics.RecordSynthesis(synthesis.Backend, synthesis.Chunks, synthesis.Elapsed)
	s.metrics.RecordAudio(len(synthesis.Data))

	out := &unitOutcome{data: synthesis.Data}

	if !opts.Combined {
		enter(models.StateWriting)
		artifact := models.AudioArtifact{
			Ordinal:  unit.Ordinal,
			Filename: output.UnitFilename(unit.Ordinal, total, unit.Title),
			Format:   "mp3",
			Data:     synthesis.Data,
		}
		path, err := s.files.Save(ctx, dir, artifact.Filename, artifact.Data)
		if err != nil {
			return fail(err)
		}
		out.path = path
		s.recordFile(ctx, runID, unit, path, len(artifact.Data))
	}

	enter(models.StateDone)
	s.metrics.RecordUnit(true)

	s.logger.Info("🎧 юнит готов",
		zap.Int("ordinal", unit.Ordinal),
		zap.Int("total", total),
		zap.String("title", unit.Title),
		zap.Int("chunks", synthesis.Chunks),
		zap.Int("audio_size", len(synthesis.Data)))

	return out, nil
}

// writeCombined записывает все юниты одним файлом OUTPUT_DIR/<имя>.mp3
func (s *Service) writeCombined(ctx context.Context, course *models.Course, outcomes []*unitOutcome, result *Result, runID int64) error {
	s.observer(Event{Total: len(course.Units), Title: course.Title, State: models.StateWriting})
	writeStart := time.Now()

	var data []byte
	for _, out := range outcomes {
		data = append(data, out.data...)
	}

	path, err := s.files.Save(ctx, s.outputDir, result.Name+".mp3", data)
	s.metrics.RecordStage(models.StateWriting.String(), time.Since(writeStart))
	if err != nil {
		return err
	}

	result.Files = []string{path}
	result.Bytes = int64(len(data))
	s.recordFile(ctx, runID, &models.Unit{Title: course.Title}, path, len(data))
	return nil
}

// writeArchive упаковывает записанные файлы в OUTPUT_DIR/<имя>.zip
func (s *Service) writeArchive(ctx context.Context, result *Result) error {
	zipPath := filepath.Join(s.outputDir, result.Name+".zip")
	if err := s.files.Archive(ctx, zipPath, result.Files); err != nil {
		return err
	}
	result.Archive = zipPath
	return nil
}

func (s *Service) recordFile(ctx context.Context, runID int64, unit *models.Unit, path string, size int) {
	if runID == 0 {
		return
	}
	file := &models.RunFile{
		RunID:     runID,
		Ordinal:   unit.Ordinal,
		UnitTitle: unit.Title,
		Path:      path,
		Bytes:     int64(size),
	}
	if err := s.history.RecordFile(ctx, file); err != nil {
		s.logger.Warn("⚠️ не удалось сохранить файл в историю",
			zap.String("path", path),
			zap.Error(err))
	}
}

// collect переносит записанные файлы в результат в порядке юнитов
func collect(result *Result, outcomes []*unitOutcome) {
	for _, out := range outcomes {
		if out == nil || out.path == "" {
			continue
		}
		result.Files = append(result.Files, out.path)
		result.Bytes += int64(len(out.data))
	}
}

// publishedFiles - архив, если он есть, иначе аудиофайлы
func publishedFiles(result *Result) []string {
	if result.Archive != "" {
		return []string{result.Archive}
	}
	return result.Files
}

// courseName выбирает имя каталога: явное имя, slug из URL или заголовок модуля
func courseName(outputName string, course *models.Course) string {
	for _, candidate := range []string{outputName, course.Slug, course.Title} {
		if strings.TrimSpace(candidate) == "" {
			continue
		}
		if name := output.SafeName(candidate, ""); name != "" {
			return name
		}
	}
	return output.DefaultName
}

func withDefaults(opts Options) Options {
	if opts.Speed == 0 {
		opts.Speed = 1.0
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Voice == "" {
		opts.Voice = models.VoiceOffline
	}
	if opts.Language == "" {
		opts.Language = "es"
	}
	return opts
}

type nopHistory struct{}

func (nopHistory) StartRun(context.Context, *models.Run) error                    { return nil }
func (nopHistory) RecordFile(context.Context, *models.RunFile) error              { return nil }
func (nopHistory) FinishRun(context.Context, int64, models.RunState, error) error { return nil }

var _ History = nopHistory{}
