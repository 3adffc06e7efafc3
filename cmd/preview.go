package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"learn-audio/internal/audio"
	"learn-audio/internal/pipeline"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview <url>",
	Short: "Показать юниты модуля и оценку длительности без синтеза",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		preview, err := spin(ctx, spinner.New().Title("Загружаем и очищаем юниты..."),
			func(ctx context.Context) (*pipeline.Preview, error) {
				return a.service.Preview(ctx, args[0], opts)
			})
		if err != nil {
			return err
		}

		fmt.Println(titleStyle.Render("📘 " + preview.Course.Title))
		fmt.Println(mutedStyle.Render(fmt.Sprintf("каталог: %s  скорость: %.2fx", preview.Name, opts.Speed)))
		fmt.Println()
		for _, u := range preview.Units {
			fmt.Printf("%s %s %s\n",
				mutedStyle.Render(fmt.Sprintf("%02d.", u.Ordinal)),
				u.Title,
				infoStyle.Render(fmt.Sprintf("(%d симв., ~%s)", u.Chars, audio.FormatDuration(u.Estimate))))
		}
		fmt.Println()
		fmt.Println(successStyle.Render(fmt.Sprintf("Итого: %d юнитов, %d символов, ~%s",
			len(preview.Units), preview.Chars, audio.FormatDuration(preview.Estimate))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
}
