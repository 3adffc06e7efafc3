package publish

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"learn-audio/internal/config"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DrivePublisher загружает файлы в папку Google Drive от имени сервисного аккаунта
type DrivePublisher struct {
	srv      *gdrive.Service
	folderID string
	logger   *zap.Logger
}

// NewDrivePublisher создает публикатор по JSON ключу сервисного аккаунта
func NewDrivePublisher(ctx context.Context, cfg config.DriveConfig, logger *zap.Logger) (*DrivePublisher, error) {
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ключа сервисного аккаунта: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, gdrive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора ключа сервисного аккаунта: %w", err)
	}

	srv, err := gdrive.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента Drive: %w", err)
	}

	return NewDrivePublisherWithService(srv, cfg.FolderID, logger), nil
}

// NewDrivePublisherWithService создает публикатор с готовым клиентом Drive
func NewDrivePublisherWithService(srv *gdrive.Service, folderID string, logger *zap.Logger) *DrivePublisher {
	return &DrivePublisher{srv: srv, folderID: folderID, logger: logger}
}

func (p *DrivePublisher) Name() string { return "drive" }

// Publish загружает файлы в папку FolderID
func (p *DrivePublisher) Publish(ctx context.Context, batch Batch) error {
	for _, path := range batch.Files {
		id, link, err := p.uploadFile(ctx, path)
		if err != nil {
			return err
		}
		p.logger.Info("☁️ файл загружен в Drive",
			zap.String("file", filepath.Base(path)),
			zap.String("id", id),
			zap.String("link", link))
	}
	return nil
}

// uploadFile загружает один файл и возвращает его ID и ссылку
func (p *DrivePublisher) uploadFile(ctx context.Context, localPath string) (string, string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	name := filepath.Base(localPath)
	mimeType := mime.TypeByExtension(filepath.Ext(name))
	if mimeType == "" {
		mimeType = "audio/mpeg"
	}

	file := &gdrive.File{
		Name:     name,
		MimeType: mimeType,
	}
	if p.folderID != "" {
		file.Parents = []string{p.folderID}
	}

	created, err := p.srv.Files.Create(file).
		Fields("id", "webViewLink").
		Context(ctx).
		Media(f, googleapi.ChunkSize(2*1024*1024)).
		Do()
	if err != nil {
		return "", "", fmt.Errorf("drive upload failed: %w", err)
	}

	return created.Id, created.WebViewLink, nil
}
