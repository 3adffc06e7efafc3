package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os/exec"
	"testing"
	"time"

	"learn-audio/internal/config"
	"learn-audio/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAtempoChain(t *testing.T) {
	tests := []struct {
		speed    float64
		expected string
	}{
		{1.0, ""},
		{1.5, "atempo=1.5"},
		{2.0, "atempo=2"},
		{3.0, "atempo=2.0,atempo=1.5"},
		{4.0, "atempo=2.0,atempo=2"},
		{0.5, "atempo=0.5"},
		{0.25, "atempo=0.5,atempo=0.5"},
		{0, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, AtempoChain(tt.speed), "speed %v", tt.speed)
	}
}

func TestEstimateDuration(t *testing.T) {
	text := ""
	for i := 0; i < 300; i++ {
		text += "palabra "
	}

	assert.Equal(t, 2*time.Minute, EstimateDuration(text, 150, 1.0))
	assert.Equal(t, time.Minute, EstimateDuration(text, 150, 2.0))
	assert.Equal(t, 2*time.Minute, EstimateDuration(text, 0, 0))
	assert.Equal(t, time.Duration(0), EstimateDuration("", 150, 1.0))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:05", FormatDuration(5*time.Second))
	assert.Equal(t, "2:03", FormatDuration(2*time.Minute+3*time.Second))
	assert.Equal(t, "1:00:01", FormatDuration(time.Hour+time.Second))
}

func TestProcessor_MissingBinary(t *testing.T) {
	p := NewProcessor(config.AudioConfig{FFmpegPath: "/nonexistent/ffmpeg", FFprobePath: "/nonexistent/ffprobe"}, zap.NewNop())

	assert.ErrorIs(t, p.Available(), models.ErrServiceUnavailable)

	_, err := p.EncodeMP3(context.Background(), sineWAV(1.0))
	assert.ErrorIs(t, err, models.ErrServiceUnavailable)
}

func TestProcessor_TempoHalvesDuration(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg не установлен")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe не установлен")
	}

	ctx := context.Background()
	p := NewProcessor(config.AudioConfig{}, zap.NewNop())

	mp3, err := p.EncodeMP3(ctx, sineWAV(2.0))
	require.NoError(t, err)
	require.NotEmpty(t, mp3)

	normal, err := p.Duration(ctx, mp3)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, normal.Seconds(), 0.2)

	fast, err := p.ChangeTempo(ctx, mp3, 2.0)
	require.NoError(t, err)

	fastDuration, err := p.Duration(ctx, fast)
	require.NoError(t, err)
	assert.InDelta(t, normal.Seconds()/2, fastDuration.Seconds(), 0.2)

	same, err := p.ChangeTempo(ctx, mp3, 1.0)
	require.NoError(t, err)
	assert.Equal(t, mp3, same)
}

// sineWAV генерирует моно WAV 16 кГц с тоном 440 Гц
func sineWAV(seconds float64) []byte {
	const sampleRate = 16000
	samples := int(seconds * sampleRate)

	var data bytes.Buffer
	for i := 0; i < samples; i++ {
		v := int16(math.Sin(2*math.Pi*440*float64(i)/sampleRate) * 8000)
		binary.Write(&data, binary.LittleEndian, v)
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())

	return buf.Bytes()
}
