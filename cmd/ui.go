package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"learn-audio/internal/pipeline"
	"learn-audio/pkg/models"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

var stateLabels = map[models.RunState]string{
	models.StateFetching:     "📥 загрузка",
	models.StateNormalizing:  "🧹 очистка текста",
	models.StateSynthesizing: "🎵 синтез речи",
	models.StateWriting:      "💾 запись",
	models.StateDone:         "✅ готово",
	models.StateFailed:       "❌ ошибка",
}

// progressPrinter печатает переходы состояний юнитов
type progressPrinter struct {
	mu sync.Mutex
}

func (p *progressPrinter) observe(e pipeline.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	label := stateLabels[e.State]
	if e.Ordinal == 0 {
		switch e.State {
		case models.StateFetching:
			fmt.Println(infoStyle.Render("📄 загружаем страницу модуля..."))
		case models.StateWriting:
			fmt.Println(infoStyle.Render("💾 склеиваем юниты в один файл..."))
		}
		return
	}

	prefix := mutedStyle.Render(fmt.Sprintf("[%d/%d]", e.Ordinal, e.Total))
	switch e.State {
	case models.StateDone:
		fmt.Printf("%s %s %s\n", prefix, successStyle.Render(label), e.Title)
	case models.StateFailed:
		fmt.Printf("%s %s %s\n", prefix, errorStyle.Render(label), e.Title)
	case models.StateFetching:
		fmt.Printf("%s %s\n", prefix, mutedStyle.Render(label))
	default:
		fmt.Printf("%s %s %s\n", prefix, infoStyle.Render(label), e.Title)
	}
}

var errInterrupted = errors.New("операция прервана")

// spin выполняет action под спиннером и возвращает ее результат.
// При прерывании (Ctrl+C, сигнал) контекст action отменяется, а результат не читается.
func spin[T any](ctx context.Context, s *spinner.Spinner, action func(context.Context) (*T, error)) (*T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		value *T
		err   error
	}
	done := make(chan outcome, 1)

	err := s.Context(ctx).
		ActionWithErr(func(ctx context.Context) error {
			value, err := action(ctx)
			done <- outcome{value: value, err: err}
			return err
		}).
		Run()
	if err != nil {
		return nil, err
	}

	select {
	case out := <-done:
		if out.err == nil && out.value == nil {
			return nil, errInterrupted
		}
		return out.value, out.err
	default:
		return nil, errInterrupted
	}
}
