package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stock-news-trader/internal/trader/config"
	"stock-news-trader/internal/trader/dto"
	"stock-news-trader/pkg/logger"
	"stock-news-trader/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"
)

// NewRSSFeedRepository creates a connector that polls the configured RSS
// feeds and extracts readable article bodies.
func NewRSSFeedRepository(cfg *config.Config, log *logger.Logger) NewsFeedRepository {
	timeout := cfg.Ingest.FetchTimeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &rssFeedRepository{
		cfg:    cfg,
		logger: log,
		client: &http.Client{Timeout: timeout},
	}
}

type rssFeedRepository struct {
	cfg    *config.Config
	logger *logger.Logger
	client *http.Client
}

func (r *rssFeedRepository) Name() string { return "rss" }

// Fetch walks every configured feed. A failing feed is logged and skipped
// so one dead source cannot starve the others.
func (r *rssFeedRepository) Fetch(ctx context.Context) ([]dto.NewsItem, error) {
	var items []dto.NewsItem

	for _, feedCfg := range r.cfg.Ingest.Feeds {
		if !utils.ShouldContinue(ctx, r.logger) {
			break
		}

		fp := gofeed.NewParser()
		feed, err := fp.ParseURLWithContext(feedCfg.URL, ctx)
		if err != nil {
			r.logger.Error("Failed to parse feed", logger.ErrorField(err), logger.StringField("url", feedCfg.URL))
			continue
		}

		for _, item := range feed.Items {
			if !utils.ShouldContinue(ctx, r.logger) {
				break
			}
			if item.Link == "" || item.Title == "" {
				continue
			}

			newsItem := dto.NewsItem{
				Source:      feedCfg.Source,
				Tier:        tierOrDefault(feedCfg.Tier),
				PublishedAt: item.PublishedParsed,
				Title:       utils.CleanToValidUTF8(item.Title),
				URL:         item.Link,
			}

			body, err := r.extractBody(ctx, item)
			if err != nil {
				r.logger.Warn("Falling back to feed description",
					logger.ErrorField(err),
					logger.StringField("url", item.Link),
				)
				body = item.Description
			}
			newsItem.Body = utils.TruncateRunes(utils.CleanToValidUTF8(body), r.cfg.Ingest.BodyMaxRunes)

			items = append(items, newsItem)
		}
	}

	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}

// extractBody downloads the article and reduces it to readable text.
func (r *rssFeedRepository) extractBody(ctx context.Context, item *gofeed.Item) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", item.Link, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for news item: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch news content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch news content, status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse news content: %w", err)
	}

	docHTML, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(doc.Content())))
	if err != nil {
		return "", fmt.Errorf("failed to parse news content: %w", err)
	}

	content := strings.TrimSpace(docHTML.Text())
	content = strings.ReplaceAll(content, "\n", " ")
	content = strings.ReplaceAll(content, "\t", " ")
	content = strings.ReplaceAll(content, "\r", " ")
	return content, nil
}

func tierOrDefault(tier int) int {
	if tier < 1 || tier > 3 {
		return 3
	}
	return tier
}
