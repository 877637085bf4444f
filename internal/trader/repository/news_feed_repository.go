package repository

import (
	"context"

	"stock-news-trader/internal/trader/dto"
	"stock-news-trader/pkg/utils"
)

// NewsFeedRepository fetches raw news items for the ingest sweep. The
// pipeline dedupes downstream, so connectors may return items they have
// returned before.
type NewsFeedRepository interface {
	Fetch(ctx context.Context) ([]dto.NewsItem, error)
	Name() string
}

// NewSampleFeedRepository returns a connector that emits a fixed batch of
// items, used for local runs and drills where no feed is reachable.
func NewSampleFeedRepository() NewsFeedRepository {
	return &sampleFeedRepository{}
}

type sampleFeedRepository struct{}

func (r *sampleFeedRepository) Name() string { return "sample" }

func (r *sampleFeedRepository) Fetch(ctx context.Context) ([]dto.NewsItem, error) {
	published := utils.TimeNowKST()
	return []dto.NewsItem{
		{
			Source:      "yonhap",
			Tier:        2,
			PublishedAt: &published,
			Title:       "Samsung Electronics announces large-scale semiconductor investment",
			Body:        "Samsung Electronics said on Monday it will expand its foundry capacity with a new fabrication plant, a move analysts called a meaningful commitment to the memory and logic roadmap.",
			URL:         "https://news.example.com/articles/samsung-foundry-investment",
		},
		{
			Source:      "yonhap",
			Tier:        2,
			PublishedAt: &published,
			Title:       "SK Hynix posts record quarterly HBM shipments",
			Body:        "SK Hynix reported record shipments of high bandwidth memory for the quarter, citing sustained AI server demand.",
			URL:         "https://news.example.com/articles/sk-hynix-hbm-record",
		},
	}, nil
}
