package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"learn-audio/pkg/models"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const defaultCourseTitle = "Microsoft Learn Course"

// Селекторы в порядке приоритета
var (
	titleSelectors = []string{
		`h1[data-bi-name="page-title"]`,
		"h1.title",
		"h1",
		".page-title h1",
		`[data-bi-name="page-title"]`,
	}
	contentSelectors = []string{
		".content",
		"main",
		`[role="main"]`,
		".main-content",
		"article",
		".module-content",
	}
)

// FetchCourse загружает страницу модуля и все его юниты в порядке следования
func (c *Client) FetchCourse(ctx context.Context, rawURL, lang string) (*models.Course, error) {
	course, err := c.FetchIndex(ctx, rawURL, lang)
	if err != nil {
		return nil, err
	}

	for i := range course.Units {
		if err := c.FetchUnit(ctx, &course.Units[i], lang); err != nil {
			return nil, fmt.Errorf("юнит %d: %w", course.Units[i].Ordinal, err)
		}
	}

	return course, nil
}

// FetchIndex загружает страницу модуля: заголовок, slug и список юнитов.
// У юнитов заполнены только Ordinal и URL, содержимое загружает FetchUnit.
func (c *Client) FetchIndex(ctx context.Context, rawURL, lang string) (*models.Course, error) {
	pageURL, err := ValidateURL(rawURL, c.allowedHosts)
	if err != nil {
		return nil, err
	}

	c.logger.Info("📄 загружаем модуль", zap.String("url", pageURL.String()))

	doc, err := c.getDocument(ctx, pageURL.String(), lang)
	if err != nil {
		return nil, err
	}

	course := &models.Course{
		Title: ExtractTitle(doc),
		URL:   pageURL.String(),
		Slug:  Slug(pageURL),
	}

	links := c.extractUnitLinks(doc, pageURL)
	if len(links) == 0 {
		return nil, models.NewError(models.ErrParse, "на странице модуля не найдены ссылки на юниты "+pageURL.String(), nil)
	}

	for i, link := range links {
		course.Units = append(course.Units, models.Unit{Ordinal: i + 1, URL: link})
	}

	c.logger.Info("🔗 найдены юниты",
		zap.String("title", course.Title),
		zap.Int("count", len(links)))

	return course, nil
}

// FetchUnit загружает страницу юнита и заполняет заголовок и HTML контейнера содержимого.
// Перед всеми юнитами, кроме первого, выдерживается пауза.
func (c *Client) FetchUnit(ctx context.Context, unit *models.Unit, lang string) error {
	if unit.Ordinal > 1 {
		if err := c.wait(ctx); err != nil {
			return err
		}
	}

	doc, err := c.getDocument(ctx, unit.URL, lang)
	if err != nil {
		return err
	}

	content, err := ExtractContent(doc)
	if err != nil {
		return models.NewError(models.ErrParse, "контейнер содержимого не найден "+unit.URL, err)
	}

	unit.Title = ExtractTitle(doc)
	unit.Content = content
	unit.Clean = false

	c.logger.Debug("📖 юнит загружен",
		zap.Int("ordinal", unit.Ordinal),
		zap.String("url", unit.URL),
		zap.String("title", unit.Title),
		zap.Int("html_length", len(content)))

	return nil
}

// ExtractTitle возвращает заголовок страницы
func ExtractTitle(doc *goquery.Document) string {
	for _, selector := range titleSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			if title := collapseSpaces(sel.Text()); title != "" {
				return title
			}
		}
	}

	if title := collapseSpaces(doc.Find("title").First().Text()); title != "" {
		return title
	}

	return defaultCourseTitle
}

// ExtractContent возвращает внутренний HTML основного контейнера страницы
func ExtractContent(doc *goquery.Document) (string, error) {
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel.Html()
		}
	}
	return "", fmt.Errorf("ни один из селекторов %v не найден", contentSelectors)
}

// extractUnitLinks находит ссылки на юниты модуля.
// Основной маркер - a.unit-title; если его нет, ищем ссылки вида unit-*/units/.
func (c *Client) extractUnitLinks(doc *goquery.Document, base *url.URL) []string {
	var links []string
	seen := make(map[string]bool)

	add := func(href string) {
		u, err := base.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		u.Fragment = ""
		full := u.String()
		if full == base.String() || seen[full] {
			return
		}
		if _, err := ValidateURL(full, c.allowedHosts); err != nil {
			c.logger.Warn("⚠️ пропускаем ссылку на юнит вне разрешенных сайтов", zap.String("href", full))
			return
		}
		seen[full] = true
		links = append(links, full)
	}

	doc.Find("a.unit-title[href]").Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		add(href)
	})
	if len(links) > 0 {
		return links
	}

	c.logger.Warn("⚠️ ссылки a.unit-title не найдены, используем эвристику", zap.String("url", base.String()))

	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		if len(links) >= c.maxUnits {
			return
		}
		href, _ := sel.Attr("href")
		if strings.HasPrefix(href, "#") {
			return
		}
		if strings.Contains(href, "unit-") || strings.Contains(href, "/units/") {
			add(href)
		}
	})

	return links
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
