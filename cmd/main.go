package main

import (
	"fmt"
	"os"
	"path/filepath"

	"learn-audio/internal/config"
	"learn-audio/pkg/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Флаги командной строки, общие для подкоманд
var (
	verbose    bool
	language   string
	speed      float64
	voice      string
	workers    int
	outputName string
	combined   bool
	archive    bool
)

var rootCmd = &cobra.Command{
	Use:   "learn-audio <url>",
	Short: "Озвучивает модули Microsoft Learn в MP3",
	Long: `learn-audio загружает модуль Microsoft Learn, очищает текст каждого юнита
от навигации и служебных элементов и сохраняет озвучку в MP3 файлы.`,
	Example: `  learn-audio https://learn.microsoft.com/es-es/training/modules/introduction-power-platform/
  learn-audio -l en -s 1.25 --voice online --combined <url>`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCourse,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "подробный вывод (debug логи в stderr)")
	flags.StringVarP(&language, "language", "l", "", "язык озвучки (es, en, fr, de, it, pt)")
	flags.Float64VarP(&speed, "speed", "s", 0, "скорость речи, 1.0 - обычная")
	flags.StringVar(&voice, "voice", "", "движок синтеза: offline или online")
	flags.IntVar(&workers, "workers", 0, "количество юнитов, обрабатываемых параллельно")

	rootCmd.Flags().StringVarP(&outputName, "output", "o", "", "имя каталога (или файла в режиме --combined)")
	rootCmd.Flags().BoolVar(&combined, "combined", false, "один MP3 файл на весь модуль")
	rootCmd.Flags().BoolVar(&archive, "archive", false, "дополнительно упаковать файлы в zip")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("❌ "+err.Error()))
		if hint := errorHint(err); hint != "" {
			fmt.Fprintln(os.Stderr, warnStyle.Render("💡 "+hint))
		}
		os.Exit(1)
	}
}

// loadConfig загружает конфигурацию и применяет флаги командной строки
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if language != "" {
		cfg.TTS.Language = language
	}
	if speed != 0 {
		cfg.TTS.Speed = speed
	}
	if voice != "" {
		cfg.TTS.Voice = voice
	}
	if workers != 0 {
		cfg.App.Workers = workers
	}
	if cmd.Flags().Changed("combined") {
		cfg.Output.Combined = combined
	}
	if cmd.Flags().Changed("archive") {
		cfg.Output.Archive = archive
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("ошибка валидации параметров: %w", err)
	}
	return cfg, nil
}

// initLogger пишет логи в файлы каталога LOG_DIR, с --verbose дублирует их в stderr
func initLogger(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	if err := os.MkdirAll(cfg.App.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории логов: %w", err)
	}

	return loggerConfig(cfg, verbose).Build()
}

// loggerConfig выбирает конфигурацию zap по APP_ENV: JSON в production, консольный формат иначе
func loggerConfig(cfg *config.Config, verbose bool) zap.Config {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.App.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}
	// stacktrace нужен только при разработке
	zapCfg.DisableStacktrace = !cfg.App.IsDevelopment()

	zapCfg.Level = cfg.App.GetLogLevel()
	zapCfg.OutputPaths = []string{filepath.Join(cfg.App.LogDir, "app.log")}
	zapCfg.ErrorOutputPaths = []string{"stderr", filepath.Join(cfg.App.LogDir, "error.log")}

	if verbose {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		zapCfg.OutputPaths = append(zapCfg.OutputPaths, "stderr")
	}

	return zapCfg
}

// errorHint подсказывает, что делать, по виду ошибки
func errorHint(err error) string {
	switch models.KindOf(err) {
	case models.ErrNetwork:
		return "проверьте подключение к сети и доступность learn.microsoft.com"
	case models.ErrParse:
		return "проверьте URL: нужна страница модуля https://learn.microsoft.com/<язык>/training/modules/<модуль>/"
	case models.ErrEmptyContent:
		return "в юните не осталось текста для озвучки, попробуйте другой модуль или язык"
	case models.ErrServiceUnavailable:
		return "движок синтеза недоступен, попробуйте --voice offline или повторите позже"
	case models.ErrIO:
		return "проверьте права на запись и свободное место в OUTPUT_DIR"
	}
	return ""
}
