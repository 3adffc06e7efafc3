package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"learn-audio/internal/config"
	"learn-audio/internal/migrations"
	"learn-audio/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestErrorText(t *testing.T) {
	assert.Nil(t, errorText(nil))

	text := errorText(errors.New("network error: GET x"))
	require.NotNil(t, text)
	assert.Equal(t, "network error: GET x", *text)
}

// Интеграционный тест: нужен PostgreSQL, например
// HISTORY_TEST_DB_HOST=localhost HISTORY_TEST_DB_USER=postgres HISTORY_TEST_DB_NAME=learn_audio_test
func TestHistoryRepository_Postgres(t *testing.T) {
	host := os.Getenv("HISTORY_TEST_DB_HOST")
	if host == "" {
		t.Skip("HISTORY_TEST_DB_HOST не задан")
	}

	cfg := config.DatabaseConfig{
		Enabled:  true,
		Host:     host,
		Port:     5432,
		User:     os.Getenv("HISTORY_TEST_DB_USER"),
		Password: os.Getenv("HISTORY_TEST_DB_PASSWORD"),
		Name:     os.Getenv("HISTORY_TEST_DB_NAME"),
		SSLMode:  "disable",
	}
	logger := zap.NewNop()

	require.NoError(t, migrations.RunMigrations(cfg, logger))

	s, err := NewStore(cfg, logger)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	repo := s.History()

	run := &models.Run{
		URL:       "https://learn.microsoft.com/es-es/training/modules/introduction-power-platform/",
		Title:     "Introducción a Power Platform",
		Language:  "es",
		Voice:     string(models.VoiceOffline),
		Speed:     1.0,
		StartedAt: time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, repo.StartRun(ctx, run))
	require.NotZero(t, run.ID)

	file := &models.RunFile{RunID: run.ID, Ordinal: 1, UnitTitle: "Introducción", Path: "output/x/01_introduccion.mp3", Bytes: 1024}
	require.NoError(t, repo.RecordFile(ctx, file))
	require.NotZero(t, file.ID)

	require.NoError(t, repo.FinishRun(ctx, run.ID, models.StateDone, nil))
	assert.Error(t, repo.FinishRun(ctx, -1, models.StateDone, nil))

	runs, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, runs)

	cutoff := time.Now().Add(-24 * time.Hour)
	count, err := repo.CountOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, int64(1))

	deleted, err := repo.DeleteOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, count, deleted)
}
