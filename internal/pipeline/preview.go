package pipeline

import (
	"context"
	"time"
	"unicode/utf8"

	"learn-audio/internal/audio"
	"learn-audio/pkg/models"

	"go.uber.org/zap"
)

// UnitPreview - сводка по юниту без синтеза
type UnitPreview struct {
	Ordinal  int
	Title    string
	URL      string
	Chars    int
	Estimate time.Duration
}

// Preview - сводка по модулю: что и примерно сколько будет озвучено
type Preview struct {
	Course   *models.Course
	Name     string
	Units    []UnitPreview
	Chars    int
	Estimate time.Duration
}

// Preview загружает модуль целиком и нормализует юниты, не вызывая синтез
func (s *Service) Preview(ctx context.Context, rawURL string, opts Options) (*Preview, error) {
	opts = withDefaults(opts)

	course, err := s.fetcher.FetchCourse(ctx, rawURL, opts.Language)
	if err != nil {
		return nil, err
	}

	preview := &Preview{
		Course: course,
		Name:   courseName(opts.OutputName, course),
	}

	for i := range course.Units {
		unit := &course.Units[i]
		clean, err := s.normalizer.Normalize(unit.Content)
		if err != nil {
			return nil, &models.UnitError{Ordinal: unit.Ordinal, Title: unit.Title, URL: unit.URL, State: models.StateNormalizing, Err: err}
		}
		unit.Content = clean
		unit.Clean = true

		up := UnitPreview{
			Ordinal:  unit.Ordinal,
			Title:    unit.Title,
			URL:      unit.URL,
			Chars:    utf8.RuneCountInString(clean),
			Estimate: audio.EstimateDuration(clean, audio.DefaultWordsPerMinute, opts.Speed),
		}
		preview.Units = append(preview.Units, up)
		preview.Chars += up.Chars
		preview.Estimate += up.Estimate
	}

	s.logger.Info("👀 предпросмотр готов",
		zap.String("title", course.Title),
		zap.Int("units", len(preview.Units)),
		zap.Int("chars", preview.Chars),
		zap.Duration("estimate", preview.Estimate))

	return preview, nil
}
