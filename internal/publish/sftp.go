package publish

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"learn-audio/internal/config"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SFTPPublisher загружает файлы на медиасервер по SFTP
type SFTPPublisher struct {
	cfg    config.SFTPConfig
	logger *zap.Logger
}

// NewSFTPPublisher создает публикатор SFTP
func NewSFTPPublisher(cfg config.SFTPConfig, logger *zap.Logger) (*SFTPPublisher, error) {
	if cfg.Host == "" || cfg.User == "" || cfg.Password == "" {
		return nil, fmt.Errorf("SFTP_HOST / SFTP_USER / SFTP_PASS не установлены")
	}
	if cfg.Port <= 0 {
		cfg.Port = 22
	}
	if cfg.RemoteDir == "" {
		cfg.RemoteDir = "/"
	}
	return &SFTPPublisher{cfg: cfg, logger: logger}, nil
}

func (p *SFTPPublisher) Name() string { return "sftp" }

// Publish загружает файлы в RemoteDir/<имя модуля> за одно SSH соединение
func (p *SFTPPublisher) Publish(ctx context.Context, batch Batch) error {
	sshClient, err := p.dial(ctx)
	if err != nil {
		return err
	}
	defer sshClient.Close()

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		return fmt.Errorf("sftp: new client: %w", err)
	}
	defer client.Close()

	remoteDir := path.Join(p.cfg.RemoteDir, batch.Name)
	if err := client.MkdirAll(remoteDir); err != nil {
		return fmt.Errorf("sftp: mkdir %s: %w", remoteDir, err)
	}

	for _, local := range batch.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		remotePath := path.Join(remoteDir, filepath.Base(local))
		if err := upload(client, local, remotePath); err != nil {
			return err
		}
		p.logger.Debug("📤 файл загружен по SFTP", zap.String("remote", remotePath))
	}

	return nil
}

// dial устанавливает SSH соединение с учетом ctx
func (p *SFTPPublisher) dial(ctx context.Context) (*ssh.Client, error) {
	hostKeyCallback, err := p.hostKeyCallback()
	if err != nil {
		return nil, err
	}

	sshCfg := &ssh.ClientConfig{
		User:            p.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(p.cfg.Password)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         20 * time.Second,
	}

	addr := net.JoinHostPort(p.cfg.Host, strconv.Itoa(p.cfg.Port))
	dialer := &net.Dialer{Timeout: sshCfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("sftp: dial error: %w", err)
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, sshCfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sftp: ssh handshake: %w", err)
	}
	return ssh.NewClient(c, chans, reqs), nil
}

// hostKeyCallback проверяет ключ сервера по ~/.ssh/known_hosts, если проверка не отключена
func (p *SFTPPublisher) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if p.cfg.InsecureIgnoreHostKey {
		p.logger.Warn("⚠️ проверка ключа SFTP сервера отключена")
		return ssh.InsecureIgnoreHostKey(), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("sftp: home dir: %w", err)
	}
	cb, err := knownhosts.New(filepath.Join(home, ".ssh", "known_hosts"))
	if err != nil {
		return nil, fmt.Errorf("sftp: known_hosts: %w", err)
	}
	return cb, nil
}

func upload(client *sftp.Client, localPath, remotePath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("sftp: open local file: %w", err)
	}
	defer src.Close()

	dst, err := client.Create(remotePath)
	if err != nil {
		return fmt.Errorf("sftp: create remote file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("sftp: upload copy: %w", err)
	}
	return nil
}
