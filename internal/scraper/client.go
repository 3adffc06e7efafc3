package scraper

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"learn-audio/internal/config"
	"learn-audio/pkg/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// HTTPError описывает ответ сайта с неуспешным статусом
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: %s %s status=%d body=%s", e.Method, e.URL, e.StatusCode, snippet(e.Body, 300))
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// Client загружает страницы модулей Microsoft Learn
type Client struct {
	httpClient   *http.Client
	logger       *zap.Logger
	userAgent    string
	allowedHosts []string
	delay        time.Duration
	maxUnits     int
}

// NewClient создает новый клиент загрузки страниц
func NewClient(cfg config.ScraperConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxUnits := cfg.MaxUnits
	if maxUnits <= 0 {
		maxUnits = 10
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:       logger,
		userAgent:    cfg.UserAgent,
		allowedHosts: cfg.AllowedHosts,
		delay:        cfg.Delay,
		maxUnits:     maxUnits,
	}
}

// getDocument загружает страницу и разбирает ее в goquery документ
func (c *Client) getDocument(ctx context.Context, pageURL, lang string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, models.NewError(models.ErrParse, "некорректный URL "+pageURL, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", acceptLanguage(lang))
	req.Header.Set("Accept-Encoding", "br, gzip")

	c.logger.Debug("🌐 загружаем страницу", zap.String("url", pageURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewError(models.ErrNetwork, "GET "+pageURL, err)
	}
	defer resp.Body.Close()

	body, err := decodeBody(resp)
	if err != nil {
		return nil, models.NewError(models.ErrNetwork, "чтение ответа "+pageURL, err)
	}
	defer body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(body, 4096))
		herr := &HTTPError{Method: req.Method, URL: pageURL, StatusCode: resp.StatusCode, Body: b}
		return nil, models.NewError(models.ErrNetwork, "неожиданный статус", herr)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, models.NewError(models.ErrParse, "разбор HTML "+pageURL, err)
	}

	return doc, nil
}

// decodeBody распаковывает тело ответа по Content-Encoding.
// Заголовок Accept-Encoding выставлен вручную, поэтому http.Transport не распаковывает gzip сам.
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		return io.NopCloser(brotli.NewReader(resp.Body)), nil
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "", "identity":
		return io.NopCloser(resp.Body), nil
	default:
		return nil, fmt.Errorf("неподдерживаемый Content-Encoding: %s", resp.Header.Get("Content-Encoding"))
	}
}

// acceptLanguage строит заголовок Accept-Language для языка озвучки ("es" -> "es-ES,es;q=0.8,...")
func acceptLanguage(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return "en-US,en;q=0.5"
	}
	base, _ := tag.Base()
	region, _ := tag.Region()
	primary := base.String() + "-" + region.String()
	if base.String() == "en" {
		return primary + ",en;q=0.8"
	}
	return fmt.Sprintf("%s,%s;q=0.8,en-US;q=0.5,en;q=0.3", primary, base.String())
}

// wait делает паузу между запросами к сайту
func (c *Client) wait(ctx context.Context) error {
	if c.delay <= 0 {
		return nil
	}
	t := time.NewTimer(c.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
