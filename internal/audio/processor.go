package audio

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"learn-audio/internal/config"
	"learn-audio/pkg/models"

	"go.uber.org/zap"
)

// DefaultWordsPerMinute - средний темп чтения для оценки длительности
const DefaultWordsPerMinute = 150

// Processor кодирует и обрабатывает аудио через ffmpeg/ffprobe
type Processor struct {
	logger      *zap.Logger
	ffmpegPath  string
	ffprobePath string
	bitrate     string
}

// NewProcessor создает новый аудио процессор
func NewProcessor(cfg config.AudioConfig, logger *zap.Logger) *Processor {
	p := &Processor{
		logger:      logger,
		ffmpegPath:  cfg.FFmpegPath,
		ffprobePath: cfg.FFprobePath,
		bitrate:     cfg.Bitrate,
	}
	if p.ffmpegPath == "" {
		p.ffmpegPath = "ffmpeg"
	}
	if p.ffprobePath == "" {
		p.ffprobePath = "ffprobe"
	}
	if p.bitrate == "" {
		p.bitrate = "64k"
	}
	return p
}

// Available проверяет, что ffmpeg и ffprobe установлены
func (p *Processor) Available() error {
	for _, bin := range []string{p.ffmpegPath, p.ffprobePath} {
		if _, err := exec.LookPath(bin); err != nil {
			return models.NewError(models.ErrServiceUnavailable, bin+" не найден", err)
		}
	}
	return nil
}

// EncodeMP3 перекодирует аудио любого формата, понятного ffmpeg (обычно WAV), в MP3
func (p *Processor) EncodeMP3(ctx context.Context, input []byte) ([]byte, error) {
	p.logger.Debug("🎚️ кодируем в MP3", zap.Int("input_size", len(input)))

	return p.ffmpeg(ctx, input,
		"-i", "pipe:0",
		"-vn",
		"-codec:a", "libmp3lame",
		"-b:a", p.bitrate,
		"-f", "mp3",
		"pipe:1")
}

// ChangeTempo меняет скорость воспроизведения без изменения высоты тона
func (p *Processor) ChangeTempo(ctx context.Context, mp3 []byte, speed float64) ([]byte, error) {
	if speed <= 0 {
		return nil, fmt.Errorf("скорость должна быть положительной: %.2f", speed)
	}
	chain := AtempoChain(speed)
	if chain == "" {
		return mp3, nil
	}

	p.logger.Debug("⏩ меняем темп",
		zap.Float64("speed", speed),
		zap.String("filter", chain))

	return p.ffmpeg(ctx, mp3,
		"-i", "pipe:0",
		"-filter:a", chain,
		"-codec:a", "libmp3lame",
		"-b:a", p.bitrate,
		"-f", "mp3",
		"pipe:1")
}

// Duration получает длительность аудио через ffprobe
func (p *Processor) Duration(ctx context.Context, data []byte) (time.Duration, error) {
	// ffprobe не может точно оценить длительность MP3 из канала, поэтому пишем во временный файл
	tmp, err := os.CreateTemp("", "learn_audio_probe_*.mp3")
	if err != nil {
		return 0, models.NewError(models.ErrIO, "временный файл для ffprobe", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return 0, models.NewError(models.ErrIO, "запись временного файла", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, models.NewError(models.ErrIO, "закрытие временного файла", err)
	}

	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		tmp.Name())

	output, err := cmd.Output()
	if err != nil {
		return 0, models.NewError(models.ErrServiceUnavailable, "ошибка выполнения ffprobe", err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("ошибка парсинга длительности: %w", err)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

// ffmpeg запускает ffmpeg с данными на stdin и возвращает stdout
func (p *Processor) ffmpeg(ctx context.Context, input []byte, args ...string) ([]byte, error) {
	args = append([]string{"-hide_banner", "-loglevel", "error"}, args...)
	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		p.logger.Error("❌ ошибка выполнения ffmpeg",
			zap.Error(err),
			zap.String("stderr", stderr.String()))
		return nil, models.NewError(models.ErrServiceUnavailable, "ошибка выполнения ffmpeg", err)
	}
	if stdout.Len() == 0 {
		return nil, models.NewError(models.ErrServiceUnavailable, "ffmpeg вернул пустой результат: "+strings.TrimSpace(stderr.String()), nil)
	}

	return stdout.Bytes(), nil
}

// AtempoChain строит цепочку фильтров atempo; один фильтр принимает множитель от 0.5 до 2.0
func AtempoChain(speed float64) string {
	if speed <= 0 || math.Abs(speed-1.0) < 1e-9 {
		return ""
	}

	var stages []string
	for speed > 2.0 {
		stages = append(stages, "atempo=2.0")
		speed /= 2.0
	}
	for speed < 0.5 {
		stages = append(stages, "atempo=0.5")
		speed /= 0.5
	}
	if math.Abs(speed-1.0) >= 1e-9 {
		stages = append(stages, "atempo="+strconv.FormatFloat(speed, 'f', -1, 64))
	}

	return strings.Join(stages, ",")
}

// EstimateDuration оценивает длительность озвучки по количеству слов
func EstimateDuration(text string, wordsPerMinute int, speed float64) time.Duration {
	if wordsPerMinute <= 0 {
		wordsPerMinute = DefaultWordsPerMinute
	}
	if speed <= 0 {
		speed = 1.0
	}
	words := len(strings.Fields(text))
	minutes := float64(words) / float64(wordsPerMinute) / speed
	return time.Duration(minutes * float64(time.Minute)).Round(time.Second)
}

// FormatDuration форматирует длительность как "m:ss" или "h:mm:ss"
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
