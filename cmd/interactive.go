package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"learn-audio/internal/pipeline"
	"learn-audio/internal/scraper"
	"learn-audio/pkg/models"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Пошаговый режим: форма параметров и zip архив с результатом",
	Args:  cobra.NoArgs,
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

		var courseURL string
		var run bool

		languageOptions := make([]huh.Option[string], 0, len(models.SupportedLanguages))
		for _, code := range models.LanguageCodes() {
			languageOptions = append(languageOptions, huh.NewOption(models.SupportedLanguages[code], code))
		}

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("URL модуля Microsoft Learn").
					Placeholder("https://learn.microsoft.com/es-es/training/modules/...").
					Value(&courseURL).
					Validate(func(v string) error {
						_, err := scraper.ValidateURL(v, a.cfg.Scraper.AllowedHosts)
						return err
					}),
				huh.NewSelect[string]().
					Title("Язык озвучки").
					Options(languageOptions...).
					Value(&opts.Language),
				huh.NewSelect[float64]().
					Title("Скорость речи").
					Options(
						huh.NewOption("0.75x", 0.75),
						huh.NewOption("1.0x", 1.0),
						huh.NewOption("1.25x", 1.25),
						huh.NewOption("1.5x", 1.5),
						huh.NewOption("2.0x", 2.0),
					).
					Value(&opts.Speed),
				huh.NewSelect[models.Voice]().
					Title("Голос").
					Options(
						huh.NewOption("Локальный (espeak-ng, без сети)", models.VoiceOffline),
						huh.NewOption("Онлайн сервис", models.VoiceOnline),
					).
					Value(&opts.Voice),
				huh.NewConfirm().
					Title("Начать озвучку?").
					Value(&run),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}
		if !run {
			fmt.Println(mutedStyle.Render("Отменено"))
			return nil
		}

		opts.Archive = true
		if err := a.checkTools(opts); err != nil {
			return err
		}

		result, err := spin(ctx, spinner.New().Title("Озвучиваем модуль, это может занять несколько минут..."),
			func(ctx context.Context) (*pipeline.Result, error) {
				return a.service.Run(ctx, courseURL, opts)
			})
		if err != nil {
			return err
		}

		printSummary(ctx, a, result)
		fmt.Println()
		fmt.Println(titleStyle.Render("📦 " + result.Archive))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
