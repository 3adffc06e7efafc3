package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"learn-audio/pkg/models"
)

// ErrInvalidURL возвращается для адресов вне Microsoft Learn
var ErrInvalidURL = errors.New("invalid course url")

// ValidateURL проверяет, что адрес указывает на разрешенный сайт
func ValidateURL(raw string, allowedHosts []string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, models.NewError(models.ErrParse, "разбор URL", errors.Join(ErrInvalidURL, err))
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, models.NewError(models.ErrParse, fmt.Sprintf("схема %q не поддерживается", u.Scheme), ErrInvalidURL)
	}

	host := strings.ToLower(u.Hostname())
	for _, allowed := range allowedHosts {
		allowed = strings.ToLower(allowed)
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			u.Fragment = ""
			return u, nil
		}
	}

	return nil, models.NewError(models.ErrParse, fmt.Sprintf("хост %q не относится к Microsoft Learn", host), ErrInvalidURL)
}

// Slug возвращает последний сегмент пути ("introduction-power-platform")
func Slug(u *url.URL) string {
	p := strings.TrimRight(u.Path, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}
