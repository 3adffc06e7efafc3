package store

import (
	"context"
	"fmt"
	"time"

	"learn-audio/internal/config"
	"learn-audio/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store представляет интерфейс для работы с базой данных истории
type Store interface {
	History() HistoryRepository
	DB() *pgxpool.Pool
	Close() error
}

// store реализует интерфейс Store
type store struct {
	db      *pgxpool.Pool
	logger  *zap.Logger
	history HistoryRepository
}

// HistoryRepository интерфейс для работы с историей запусков
type HistoryRepository interface {
	StartRun(ctx context.Context, run *models.Run) error
	RecordFile(ctx context.Context, file *models.RunFile) error
	FinishRun(ctx context.Context, runID int64, state models.RunState, runErr error) error
	ListRecent(ctx context.Context, limit int) ([]*models.Run, error)
	CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewStore создает новое подключение к базе данных
func NewStore(cfg config.DatabaseConfig, logger *zap.Logger) (Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Создание пула подключений
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	// CLI пишет историю последовательно, большой пул не нужен
	poolConfig.MaxConns = 4
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	// Проверка подключения
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка проверки подключения к базе данных: %w", err)
	}

	logger.Info("🗄️ успешное подключение к базе данных PostgreSQL")

	return &store{
		db:      db,
		logger:  logger,
		history: NewHistoryRepository(db, logger),
	}, nil
}

// History возвращает репозиторий истории запусков
func (s *store) History() HistoryRepository {
	return s.history
}

// DB возвращает подключение к базе данных
func (s *store) DB() *pgxpool.Pool {
	return s.db
}

// Close закрывает подключение к базе данных
func (s *store) Close() error {
	s.logger.Info("закрытие подключения к базе данных")
	s.db.Close()
	return nil
}
