package tts

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"

	"learn-audio/internal/audio"
	"learn-audio/internal/config"
	"learn-audio/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeBackend записывает тексты вызовов и возвращает их как "аудио"
type fakeBackend struct {
	maxChars   int
	nativeRate bool
	calls      []models.SynthesisRequest
	failOn     int
}

func (f *fakeBackend) Name() string     { return "fake" }
func (f *fakeBackend) MaxChars() int    { return f.maxChars }
func (f *fakeBackend) NativeRate() bool { return f.nativeRate }

func (f *fakeBackend) SynthesizeText(_ context.Context, req models.SynthesisRequest) ([]byte, error) {
	f.calls = append(f.calls, req)
	if f.failOn > 0 && len(f.calls) == f.failOn {
		return nil, models.NewError(models.ErrServiceUnavailable, "fake", nil)
	}
	return []byte("[" + req.Text + "]"), nil
}

type fakeTempo struct {
	speeds []float64
}

func (f *fakeTempo) ChangeTempo(_ context.Context, mp3 []byte, speed float64) ([]byte, error) {
	f.speeds = append(f.speeds, speed)
	return append([]byte("tempo:"), mp3...), nil
}

type fakeEncoder struct{}

func (fakeEncoder) EncodeMP3(_ context.Context, input []byte) ([]byte, error) {
	return append([]byte("mp3:"), input...), nil
}

func (fakeEncoder) ChangeTempo(_ context.Context, mp3 []byte, _ float64) ([]byte, error) {
	return mp3, nil
}

func TestSynthesizer_SplitsLongText(t *testing.T) {
	backend := &fakeBackend{maxChars: 40}
	tempo := &fakeTempo{}
	s := NewSynthesizer(backend, tempo, zap.NewNop())

	input := "Primera frase de prueba. Segunda frase de prueba. Tercera frase de prueba. Cuarta frase."
	result, err := s.Synthesize(context.Background(), models.SynthesisRequest{
		Text: input, Language: "es", Voice: models.VoiceOnline, Speed: 1.0,
	})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(backend.calls), 2)
	assert.Equal(t, len(backend.calls), result.Chunks)
	assert.Equal(t, "fake", result.Backend)

	var texts []string
	for _, call := range backend.calls {
		assert.LessOrEqual(t, len([]rune(call.Text)), 40)
		assert.Equal(t, "es", call.Language)
		texts = append(texts, call.Text)
	}
	assert.Equal(t, input, strings.Join(texts, " "))
	assert.Equal(t, "["+strings.Join(texts, "][")+"]", string(result.Data))
	assert.Empty(t, tempo.speeds)
}

func TestSynthesizer_TempoForNonNativeBackend(t *testing.T) {
	backend := &fakeBackend{maxChars: 200}
	tempo := &fakeTempo{}
	s := NewSynthesizer(backend, tempo, zap.NewNop())

	result, err := s.Synthesize(context.Background(), models.SynthesisRequest{Text: "Hola.", Language: "es", Speed: 1.5})
	require.NoError(t, err)

	assert.Equal(t, 1.0, backend.calls[0].Speed)
	assert.Equal(t, []float64{1.5}, tempo.speeds)
	assert.Equal(t, "tempo:[Hola.]", string(result.Data))
}

func TestSynthesizer_NativeRate(t *testing.T) {
	backend := &fakeBackend{maxChars: 200, nativeRate: true}
	tempo := &fakeTempo{}
	s := NewSynthesizer(backend, tempo, zap.NewNop())

	_, err := s.Synthesize(context.Background(), models.SynthesisRequest{Text: "Hola.", Language: "es", Speed: 2.0})
	require.NoError(t, err)

	assert.Equal(t, 2.0, backend.calls[0].Speed)
	assert.Empty(t, tempo.speeds)
}

func TestSynthesizer_Errors(t *testing.T) {
	s := NewSynthesizer(&fakeBackend{maxChars: 10}, &fakeTempo{}, zap.NewNop())

	_, err := s.Synthesize(context.Background(), models.SynthesisRequest{Text: "  ", Speed: 1.0})
	assert.ErrorIs(t, err, models.ErrEmptyContent)

	_, err = s.Synthesize(context.Background(), models.SynthesisRequest{Text: "Hola.", Speed: 0})
	assert.Error(t, err)

	backend := &fakeBackend{maxChars: 10, failOn: 2}
	s = NewSynthesizer(backend, &fakeTempo{}, zap.NewNop())
	_, err = s.Synthesize(context.Background(), models.SynthesisRequest{Text: "Uno uno. Dos dos. Tres tres.", Speed: 1.0})
	assert.ErrorIs(t, err, models.ErrServiceUnavailable)
	assert.Len(t, backend.calls, 2)
}

func TestGoogleService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate_tts", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "tw-ob", q.Get("client"))
		assert.Equal(t, "es", q.Get("tl"))
		assert.Equal(t, "Hola mundo.", q.Get("q"))
		assert.Equal(t, "11", q.Get("textlen"))
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3fake"))
	}))
	defer server.Close()

	s := NewGoogleService(zap.NewNop(), server.URL, 200, 0)
	data, err := s.SynthesizeText(context.Background(), models.SynthesisRequest{Text: "Hola mundo.", Language: "es", Speed: 1.0})
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3fake"), data)
	assert.False(t, s.NativeRate())

	_, err = s.SynthesizeText(context.Background(), models.SynthesisRequest{Text: strings.Repeat("a", 201), Language: "es"})
	assert.ErrorIs(t, err, models.ErrServiceUnavailable)
}

func TestGoogleService_WordLongerThanLimit(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("ID3fake"))
	}))
	defer server.Close()

	// слово длиннее лимита остается отдельным куском и отклоняется движком
	s := NewSynthesizer(NewGoogleService(zap.NewNop(), server.URL, 10, 0), &fakeTempo{}, zap.NewNop())
	_, err := s.Synthesize(context.Background(), models.SynthesisRequest{
		Text: "Hola. Electroencefalografista.", Language: "es", Voice: models.VoiceOnline, Speed: 1.0,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrServiceUnavailable)
	assert.Equal(t, 1, calls)
}

func TestGoogleService_Unavailable(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer failing.Close()

	s := NewGoogleService(zap.NewNop(), failing.URL, 200, 0)
	_, err := s.SynthesizeText(context.Background(), models.SynthesisRequest{Text: "Hola.", Language: "es"})
	assert.ErrorIs(t, err, models.ErrServiceUnavailable)

	closed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	closed.Close()

	s = NewGoogleService(zap.NewNop(), closed.URL, 200, 0)
	_, err = s.SynthesizeText(context.Background(), models.SynthesisRequest{Text: "Hola.", Language: "es"})
	assert.ErrorIs(t, err, models.ErrServiceUnavailable)
}

func TestPiperService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/synthesize-raw", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Hola.", r.FormValue("text"))
		assert.Equal(t, "es", r.FormValue("language"))
		io.WriteString(w, "RIFFwav")
	}))
	defer server.Close()

	s := NewPiperService(zap.NewNop(), server.URL+"/", 1000, 0, fakeEncoder{})
	data, err := s.SynthesizeText(context.Background(), models.SynthesisRequest{Text: "Hola.", Language: "es"})
	require.NoError(t, err)
	assert.Equal(t, "mp3:RIFFwav", string(data))

	_, err = s.SynthesizeText(context.Background(), models.SynthesisRequest{Text: strings.Repeat("a", 1001), Language: "es"})
	assert.ErrorIs(t, err, models.ErrServiceUnavailable)
}

func TestEspeakService_Missing(t *testing.T) {
	s := NewEspeakService(zap.NewNop(), "/nonexistent/espeak-ng", 4000, 0, fakeEncoder{})
	_, err := s.SynthesizeText(context.Background(), models.SynthesisRequest{Text: "Hola.", Language: "es", Speed: 1.0})
	assert.ErrorIs(t, err, models.ErrServiceUnavailable)
	assert.True(t, s.NativeRate())
}

func TestEspeakRate(t *testing.T) {
	rate, rest := espeakRate(1.0)
	assert.Equal(t, 200, rate)
	assert.Equal(t, 1.0, rest)

	rate, rest = espeakRate(1.5)
	assert.Equal(t, 300, rate)
	assert.Equal(t, 1.0, rest)

	rate, rest = espeakRate(3.0)
	assert.Equal(t, espeakMaxRate, rate)
	assert.InDelta(t, 600.0/450.0, rest, 1e-9)

	rate, rest = espeakRate(0.25)
	assert.Equal(t, espeakMinRate, rate)
	assert.InDelta(t, 50.0/80.0, rest, 1e-9)
}

func TestNewBackend(t *testing.T) {
	cfg := config.TTSConfig{RemoteProvider: "google", GoogleMaxChars: 200, PiperMaxChars: 1000, LocalMaxChars: 4000}

	b, err := NewBackend(cfg, models.VoiceOffline, fakeEncoder{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "espeak", b.Name())
	assert.Equal(t, 4000, b.MaxChars())

	b, err = NewBackend(cfg, models.VoiceOnline, fakeEncoder{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "google", b.Name())
	assert.Equal(t, 200, b.MaxChars())

	cfg.RemoteProvider = "piper"
	b, err = NewBackend(cfg, models.VoiceOnline, fakeEncoder{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "piper", b.Name())

	cfg.RemoteProvider = "polly"
	_, err = NewBackend(cfg, models.VoiceOnline, fakeEncoder{}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewBackend(cfg, models.Voice("robot"), fakeEncoder{}, zap.NewNop())
	assert.Error(t, err)
}

// Полный путь через espeak-ng и ffmpeg: скорость 2.0 дает примерно вдвое более короткое аудио
func TestEspeakService_SpeedScalesDuration(t *testing.T) {
	for _, bin := range []string{"espeak-ng", "ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s не установлен", bin)
		}
	}

	ctx := context.Background()
	processor := audio.NewProcessor(config.AudioConfig{}, zap.NewNop())
	s := NewSynthesizer(NewEspeakService(zap.NewNop(), "", 4000, 0, processor), processor, zap.NewNop())

	text := "Hello world. This sentence makes the recording long enough to measure the speed difference."
	normal, err := s.Synthesize(ctx, models.SynthesisRequest{Text: text, Language: "en", Speed: 1.0})
	require.NoError(t, err)
	fast, err := s.Synthesize(ctx, models.SynthesisRequest{Text: text, Language: "en", Speed: 2.0})
	require.NoError(t, err)

	normalDuration, err := processor.Duration(ctx, normal.Data)
	require.NoError(t, err)
	fastDuration, err := processor.Duration(ctx, fast.Data)
	require.NoError(t, err)

	assert.Positive(t, normalDuration.Seconds())
	ratio := fastDuration.Seconds() / normalDuration.Seconds()
	assert.InDelta(t, 0.5, ratio, 0.2)
}
