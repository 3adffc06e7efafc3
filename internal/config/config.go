package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"learn-audio/pkg/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config содержит все конфигурационные параметры приложения
type Config struct {
	App      AppConfig
	Scraper  ScraperConfig
	TTS      TTSConfig
	Audio    AudioConfig
	Output   OutputConfig
	Metrics  MetricsConfig
	Database DatabaseConfig
	Telegram TelegramConfig
	SFTP     SFTPConfig
	Drive    DriveConfig
}

type AppConfig struct {
	Env      string
	LogLevel string
	LogDir   string
	Workers  int
}

// ScraperConfig содержит настройки загрузки страниц Microsoft Learn
type ScraperConfig struct {
	AllowedHosts []string
	UserAgent    string
	Timeout      time.Duration
	Delay        time.Duration // пауза между запросами к сайту
	MaxUnits     int           // ограничение для эвристического поиска юнитов
}

// TTSConfig содержит настройки синтеза речи
type TTSConfig struct {
	Language       string
	Speed          float64
	Voice          string // offline, online
	RemoteProvider string // google, piper
	GoogleURL      string
	GoogleMaxChars int
	PiperURL       string
	PiperMaxChars  int
	EspeakPath     string
	LocalMaxChars  int
	Timeout        time.Duration
}

// AudioConfig содержит пути к утилитам обработки аудио
type AudioConfig struct {
	FFmpegPath  string
	FFprobePath string
	Bitrate     string
}

type OutputConfig struct {
	Dir      string
	Combined bool
	Archive  bool
}

type MetricsConfig struct {
	TextfilePath string // пусто - метрики не сохраняются
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// TelegramConfig содержит настройки отправки аудио в чат
type TelegramConfig struct {
	Enabled  bool
	BotToken string
	ChatID   int64
}

type SFTPConfig struct {
	Enabled               bool
	Host                  string
	Port                  int
	User                  string
	Password              string
	RemoteDir             string
	InsecureIgnoreHostKey bool
}

// DriveConfig содержит настройки загрузки в Google Drive через сервисный аккаунт
type DriveConfig struct {
	Enabled         bool
	CredentialsFile string
	FolderID        string
}

// Load загружает конфигурацию из переменных окружения и .env
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// App
	cfg.App.Env = getEnvDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvDefault("LOG_LEVEL", "info")
	cfg.App.LogDir = getEnvDefault("LOG_DIR", "logs")
	cfg.App.Workers = getEnvIntDefault("WORKERS", 1)

	// Scraper
	cfg.Scraper.AllowedHosts = getEnvListDefault("SOURCE_ALLOWED_HOSTS", []string{"learn.microsoft.com", "docs.microsoft.com"})
	cfg.Scraper.UserAgent = getEnvDefault("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	cfg.Scraper.Timeout = getEnvDurationDefault("SCRAPER_TIMEOUT", 30*time.Second)
	cfg.Scraper.Delay = getEnvDurationDefault("SCRAPER_DELAY", time.Second)
	cfg.Scraper.MaxUnits = getEnvIntDefault("SCRAPER_MAX_UNITS", 10)

	// TTS
	cfg.TTS.Language = getEnvDefault("DEFAULT_LANGUAGE", "es")
	cfg.TTS.Speed = getEnvFloatDefault("DEFAULT_SPEED", 1.0)
	cfg.TTS.Voice = getEnvDefault("DEFAULT_VOICE", "offline")
	cfg.TTS.RemoteProvider = getEnvDefault("TTS_REMOTE_PROVIDER", "google")
	cfg.TTS.GoogleURL = getEnvDefault("GOOGLE_TTS_URL", "https://translate.google.com")
	cfg.TTS.GoogleMaxChars = getEnvIntDefault("GOOGLE_TTS_MAX_CHARS", 200)
	cfg.TTS.PiperURL = getEnvDefault("PIPER_TTS_URL", "http://localhost:5000")
	cfg.TTS.PiperMaxChars = getEnvIntDefault("PIPER_TTS_MAX_CHARS", 1000)
	cfg.TTS.EspeakPath = getEnvDefault("ESPEAK_PATH", "espeak-ng")
	cfg.TTS.LocalMaxChars = getEnvIntDefault("LOCAL_TTS_MAX_CHARS", 4000)
	cfg.TTS.Timeout = getEnvDurationDefault("TTS_TIMEOUT", 60*time.Second)

	// Audio
	cfg.Audio.FFmpegPath = getEnvDefault("FFMPEG_PATH", "ffmpeg")
	cfg.Audio.FFprobePath = getEnvDefault("FFPROBE_PATH", "ffprobe")
	cfg.Audio.Bitrate = getEnvDefault("AUDIO_BITRATE", "64k")

	// Output
	cfg.Output.Dir = getEnvDefault("OUTPUT_DIR", "output")
	cfg.Output.Combined = getEnvBoolDefault("OUTPUT_COMBINED", false)
	cfg.Output.Archive = getEnvBoolDefault("OUTPUT_ARCHIVE", false)

	// Metrics
	cfg.Metrics.TextfilePath = os.Getenv("METRICS_TEXTFILE")

	// Database
	cfg.Database.Enabled = getEnvBoolDefault("HISTORY_ENABLED", false)
	cfg.Database.Host = getEnvDefault("DB_HOST", "localhost")
	cfg.Database.Port = getEnvIntDefault("DB_PORT", 5432)
	cfg.Database.User = os.Getenv("DB_USER")
	cfg.Database.Password = os.Getenv("DB_PASSWORD")
	cfg.Database.Name = os.Getenv("DB_NAME")
	cfg.Database.SSLMode = getEnvDefault("DB_SSL_MODE", "disable")

	// Telegram
	cfg.Telegram.Enabled = getEnvBoolDefault("TELEGRAM_ENABLED", false)
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.Telegram.ChatID = getEnvInt64Default("TELEGRAM_CHAT_ID", 0)

	// SFTP
	cfg.SFTP.Enabled = getEnvBoolDefault("SFTP_ENABLED", false)
	cfg.SFTP.Host = os.Getenv("SFTP_HOST")
	cfg.SFTP.Port = getEnvIntDefault("SFTP_PORT", 22)
	cfg.SFTP.User = os.Getenv("SFTP_USER")
	cfg.SFTP.Password = os.Getenv("SFTP_PASS")
	cfg.SFTP.RemoteDir = getEnvDefault("SFTP_REMOTE_DIR", "/")
	cfg.SFTP.InsecureIgnoreHostKey = getEnvBoolDefault("SFTP_INSECURE_IGNORE_HOST_KEY", false)

	// Drive
	cfg.Drive.Enabled = getEnvBoolDefault("DRIVE_UPLOAD_ENABLED", false)
	cfg.Drive.CredentialsFile = getEnvDefault("DRIVE_CREDENTIALS_FILE", "secrets/drive_service_account.json")
	cfg.Drive.FolderID = os.Getenv("DRIVE_FOLDER_ID")

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}

	return cfg, nil
}

func getEnvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvInt64Default(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}

func getEnvFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// getEnvListDefault разбирает список через запятую
func getEnvListDefault(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// Validate проверяет корректность конфигурации.
// Вызывается повторно после применения флагов командной строки.
func Validate(config *Config) error {
	if config.TTS.Speed <= 0 || config.TTS.Speed > 4 {
		return fmt.Errorf("скорость должна быть в диапазоне (0, 4], получено %.2f", config.TTS.Speed)
	}
	voice, err := models.ParseVoice(config.TTS.Voice)
	if err != nil {
		return err
	}
	config.TTS.Voice = string(voice)
	if config.TTS.RemoteProvider != "google" && config.TTS.RemoteProvider != "piper" {
		return fmt.Errorf("поддерживаются только TTS_REMOTE_PROVIDER: google, piper")
	}
	if _, ok := models.SupportedLanguages[config.TTS.Language]; !ok {
		return fmt.Errorf("язык %q не поддерживается: %s", config.TTS.Language, strings.Join(models.LanguageCodes(), ", "))
	}
	if config.TTS.GoogleMaxChars <= 0 || config.TTS.LocalMaxChars <= 0 || config.TTS.PiperMaxChars <= 0 {
		return fmt.Errorf("лимиты длины текста для TTS должны быть положительными")
	}
	if config.App.Workers < 1 {
		return fmt.Errorf("WORKERS должен быть не меньше 1")
	}
	if config.Output.Dir == "" {
		return fmt.Errorf("OUTPUT_DIR не установлен")
	}
	if len(config.Scraper.AllowedHosts) == 0 {
		return fmt.Errorf("SOURCE_ALLOWED_HOSTS пуст")
	}
	if config.Database.Enabled {
		if config.Database.User == "" {
			return fmt.Errorf("DB_USER не установлен")
		}
		if config.Database.Name == "" {
			return fmt.Errorf("DB_NAME не установлен")
		}
	}
	if config.Telegram.Enabled {
		if config.Telegram.BotToken == "" {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN не установлен")
		}
		if config.Telegram.ChatID == 0 {
			return fmt.Errorf("TELEGRAM_CHAT_ID не установлен")
		}
	}
	if config.SFTP.Enabled && (config.SFTP.Host == "" || config.SFTP.User == "" || config.SFTP.Password == "") {
		return fmt.Errorf("SFTP_HOST / SFTP_USER / SFTP_PASS не установлены")
	}
	if config.Drive.Enabled && config.Drive.CredentialsFile == "" {
		return fmt.Errorf("DRIVE_CREDENTIALS_FILE не установлен")
	}

	return nil
}

// GetDSN возвращает строку подключения к базе данных
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// GetURL возвращает DSN в формате URL (для database/sql и goose)
func (c *DatabaseConfig) GetURL() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// IsDevelopment проверяет, запущено ли приложение в режиме разработки
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction проверяет, запущено ли приложение в продакшн режиме
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// GetLogLevel возвращает уровень логирования в формате zap
func (c *AppConfig) GetLogLevel() zap.AtomicLevel {
	switch c.LogLevel {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
