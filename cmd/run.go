package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learn-audio/internal/audio"
	"learn-audio/internal/pipeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runCourse озвучивает модуль по адресу из аргумента
func runCourse(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.finish()

	opts, err := a.options()
	if err != nil {
		return err
	}
	if err := a.checkTools(opts); err != nil {
		return err
	}

	printer := &progressPrinter{}
	a.service.SetObserver(printer.observe)

	fmt.Println(titleStyle.Render("🎧 learn-audio"))
	fmt.Println(mutedStyle.Render(fmt.Sprintf("язык: %s  голос: %s  скорость: %.2fx", opts.Language, opts.Voice, opts.Speed)))

	result, err := a.service.Run(ctx, args[0], opts)
	if err != nil {
		if result != nil && len(result.Files) > 0 {
			fmt.Println(warnStyle.Render(fmt.Sprintf("⚠️ записано файлов до ошибки: %d (%s)", len(result.Files), result.Dir)))
		}
		return err
	}

	printSummary(ctx, a, result)
	return nil
}

func printSummary(ctx context.Context, a *app, result *pipeline.Result) {
	fmt.Println()
	fmt.Println(successStyle.Render(fmt.Sprintf("✅ %s", result.Course.Title)))
	fmt.Printf("%s %d\n", mutedStyle.Render("файлов:"), len(result.Files))
	fmt.Printf("%s %s\n", mutedStyle.Render("каталог:"), result.Dir)
	if result.Archive != "" {
		fmt.Printf("%s %s\n", mutedStyle.Render("архив:"), result.Archive)
	}

	// длительность по ffprobe; без него не выводим
	var total time.Duration
	for _, path := range result.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			return
		}
		d, err := a.processor.Duration(ctx, data)
		if err != nil {
			a.logger.Debug("длительность не определена", zap.String("file", path), zap.Error(err))
			return
		}
		total += d
	}
	fmt.Printf("%s %s\n", mutedStyle.Render("длительность:"), audio.FormatDuration(total))
}
