package store

import (
	"context"
	"fmt"
	"time"

	"learn-audio/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// historyRepository реализует HistoryRepository
type historyRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewHistoryRepository создает новый репозиторий истории
func NewHistoryRepository(db *pgxpool.Pool, logger *zap.Logger) HistoryRepository {
	return &historyRepository{
		db:     db,
		logger: logger,
	}
}

// StartRun создает запись о начале запуска
func (r *historyRepository) StartRun(ctx context.Context, run *models.Run) error {
	query := `
		INSERT INTO runs (url, title, language, voice, speed, state, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.State == "" {
		run.State = models.StateFetching.String()
	}

	err := r.db.QueryRow(ctx, query,
		run.URL, run.Title, run.Language, run.Voice, run.Speed, run.State, run.StartedAt,
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("ошибка создания записи запуска: %w", err)
	}

	r.logger.Debug("🗄️ запуск записан в историю",
		zap.Int64("run_id", run.ID),
		zap.String("url", run.URL))

	return nil
}

// RecordFile сохраняет записанный файл
func (r *historyRepository) RecordFile(ctx context.Context, file *models.RunFile) error {
	query := `
		INSERT INTO run_files (run_id, ordinal, unit_title, path, bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now()
	}

	err := r.db.QueryRow(ctx, query,
		file.RunID, file.Ordinal, file.UnitTitle, file.Path, file.Bytes, file.CreatedAt,
	).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("ошибка записи файла в историю: %w", err)
	}

	return nil
}

// FinishRun фиксирует итоговое состояние запуска
func (r *historyRepository) FinishRun(ctx context.Context, runID int64, state models.RunState, runErr error) error {
	query := `UPDATE runs SET state = $2, error = $3, finished_at = $4 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, runID, state.String(), errorText(runErr), time.Now())
	if err != nil {
		return fmt.Errorf("ошибка обновления запуска: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("запуск с ID %d не найден", runID)
	}

	r.logger.Debug("🗄️ запуск завершен",
		zap.Int64("run_id", runID),
		zap.String("state", state.String()))

	return nil
}

// ListRecent возвращает последние запуски
func (r *historyRepository) ListRecent(ctx context.Context, limit int) ([]*models.Run, error) {
	query := `
		SELECT id, url, title, language, voice, speed, state, error, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории запусков: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run := &models.Run{}
		if err := rows.Scan(
			&run.ID, &run.URL, &run.Title, &run.Language, &run.Voice, &run.Speed,
			&run.State, &run.Error, &run.StartedAt, &run.FinishedAt,
		); err != nil {
			r.logger.Error("ошибка сканирования запуска", zap.Error(err))
			continue
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// CountOlderThan считает запуски, начатые раньше cutoff
func (r *historyRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM runs WHERE started_at < $1`, cutoff).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчета старых запусков: %w", err)
	}
	return count, nil
}

// DeleteOlderThan удаляет запуски (и их файлы каскадно), начатые раньше cutoff
func (r *historyRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM runs WHERE started_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления старых запусков: %w", err)
	}

	r.logger.Info("🧹 старые запуски удалены",
		zap.Int64("deleted", result.RowsAffected()),
		zap.Time("cutoff", cutoff))

	return result.RowsAffected(), nil
}

// errorText превращает ошибку в значение для колонки error
func errorText(err error) *string {
	if err == nil {
		return nil
	}
	s := err.Error()
	return &s
}
