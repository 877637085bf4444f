package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"stock-news-trader/internal/trader/config"
	"stock-news-trader/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssArticleHTML = `<!DOCTYPE html>
<html><head><title>article</title></head><body>
<div id="content">
<p>Samsung Electronics said on Thursday it will spend heavily on a new foundry line,
its largest single commitment in years, as customers lock in advanced-node capacity
through the end of the decade.</p>
<p>The company added that construction starts next quarter, with equipment move-in
scheduled for the second half, and that the line is already fully booked by three
external customers.</p>
</div>
</body></html>`

func rssTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test Wire</title>
<item>
<title>Samsung Electronics wins major chip contract</title>
<link>%[1]s/articles/1</link>
<description>wire summary one</description>
<pubDate>Thu, 21 Aug 2025 09:00:00 +0900</pubDate>
</item>
<item>
<title>SK Hynix expands HBM line</title>
<link>%[1]s/articles/missing</link>
<description>fallback summary</description>
</item>
<item>
<title></title>
<link>%[1]s/articles/untitled</link>
</item>
</channel></rss>`, server.URL)
	})
	mux.HandleFunc("/articles/1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, rssArticleHTML)
	})
	mux.HandleFunc("/articles/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func rssTestConfig(feeds ...config.FeedSource) *config.Config {
	return &config.Config{Ingest: config.Ingest{
		Provider:     "rss",
		Feeds:        feeds,
		BodyMaxRunes: 4000,
	}}
}

func rssTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

func TestRSSFetchExtractsArticles(t *testing.T) {
	server := rssTestServer(t)
	cfg := rssTestConfig(config.FeedSource{URL: server.URL + "/rss", Source: "testwire", Tier: 2})
	repo := NewRSSFeedRepository(cfg, rssTestLogger(t))

	items, err := repo.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2, "the titleless item is dropped")

	assert.Equal(t, "testwire", items[0].Source)
	assert.Equal(t, 2, items[0].Tier)
	assert.Equal(t, "Samsung Electronics wins major chip contract", items[0].Title)
	assert.NotNil(t, items[0].PublishedAt)
	assert.Contains(t, items[0].Body, "foundry", "body comes from the fetched article, not the feed summary")

	// The second article 404s, so the feed description stands in.
	assert.Equal(t, "fallback summary", items[1].Body)
}

func TestRSSFetchClampsUnknownTier(t *testing.T) {
	server := rssTestServer(t)
	cfg := rssTestConfig(config.FeedSource{URL: server.URL + "/rss", Source: "testwire", Tier: 9})
	repo := NewRSSFeedRepository(cfg, rssTestLogger(t))

	items, err := repo.Fetch(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, items)
	assert.Equal(t, 3, items[0].Tier)
}

func TestRSSFetchSkipsDeadFeeds(t *testing.T) {
	server := rssTestServer(t)
	cfg := rssTestConfig(
		config.FeedSource{URL: "http://127.0.0.1:1/rss", Source: "dead", Tier: 1},
		config.FeedSource{URL: server.URL + "/rss", Source: "testwire", Tier: 1},
	)
	repo := NewRSSFeedRepository(cfg, rssTestLogger(t))

	items, err := repo.Fetch(context.Background())
	require.NoError(t, err, "one dead source must not fail the sweep")
	assert.Len(t, items, 2)
}

func TestRSSFetchNoFeedsConfigured(t *testing.T) {
	repo := NewRSSFeedRepository(rssTestConfig(), rssTestLogger(t))

	items, err := repo.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}
