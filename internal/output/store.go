package output

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"learn-audio/pkg/models"

	"go.uber.org/zap"
)

// FileStore записывает аудио файлы на диск
type FileStore struct {
	logger   *zap.Logger
	permFile os.FileMode
	permDir  os.FileMode
}

// NewFileStore создает новое файловое хранилище
func NewFileStore(logger *zap.Logger) *FileStore {
	return &FileStore{
		logger:   logger,
		permFile: 0o644,
		permDir:  0o755,
	}
}

// Save записывает данные в dir/filename, создавая каталог при необходимости.
// Существующий файл перезаписывается атомарно (временный файл в том же каталоге + rename).
func (s *FileStore) Save(ctx context.Context, dir, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if filename == "" || filename != filepath.Base(filename) || filename == "." || filename == ".." {
		return "", models.NewError(models.ErrIO, fmt.Sprintf("недопустимое имя файла %q", filename), nil)
	}

	if err := os.MkdirAll(dir, s.permDir); err != nil {
		return "", models.NewError(models.ErrIO, "создание каталога "+dir, err)
	}

	dest := filepath.Join(dir, filename)
	if err := s.writeAtomic(dest, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return "", models.NewError(models.ErrIO, "запись файла "+dest, err)
	}

	s.logger.Info("💾 файл сохранен",
		zap.String("path", dest),
		zap.Int("bytes", len(data)))

	return dest, nil
}

// Archive упаковывает файлы в zip архив (имена внутри архива - базовые имена файлов)
func (s *FileStore) Archive(ctx context.Context, zipPath string, files []string) error {
	if err := os.MkdirAll(filepath.Dir(zipPath), s.permDir); err != nil {
		return models.NewError(models.ErrIO, "создание каталога архива", err)
	}

	err := s.writeAtomic(zipPath, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := addToZip(zw, path); err != nil {
				return err
			}
		}
		return zw.Close()
	})
	if err != nil {
		return models.NewError(models.ErrIO, "создание архива "+zipPath, err)
	}

	s.logger.Info("📦 архив создан",
		zap.String("path", zipPath),
		zap.Int("files", len(files)))

	return nil
}

func addToZip(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(path)
	// MP3 уже сжат
	header.Method = zip.Store

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

// writeAtomic пишет во временный файл рядом с dest и переименовывает его
func (s *FileStore) writeAtomic(dest string, write func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	_ = os.Chmod(tmpPath, s.permFile)

	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
