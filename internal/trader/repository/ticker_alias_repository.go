package repository

import (
	"context"
	"fmt"
	"time"

	"stock-news-trader/internal/entity"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

const aliasCacheKey = "ticker_aliases:all"

// TickerAliasRepository loads the mapping dictionary the ticker mapper
// matches against.
type TickerAliasRepository interface {
	ListAll(ctx context.Context) ([]entity.TickerAlias, error)
}

// NewTickerAliasRepository creates a TickerAliasRepository with a short
// in-process cache; the dictionary changes rarely and is read per news item.
func NewTickerAliasRepository(db *gorm.DB) TickerAliasRepository {
	return &tickerAliasRepository{
		db:            db,
		inmemoryCache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

type tickerAliasRepository struct {
	db            *gorm.DB
	inmemoryCache *cache.Cache
}

// ListAll returns every alias row, served from cache when fresh.
func (r *tickerAliasRepository) ListAll(ctx context.Context) ([]entity.TickerAlias, error) {
	if cached, found := r.inmemoryCache.Get(aliasCacheKey); found {
		if aliases, ok := cached.([]entity.TickerAlias); ok {
			return aliases, nil
		}
	}

	var aliases []entity.TickerAlias
	if err := r.db.WithContext(ctx).Find(&aliases).Error; err != nil {
		return nil, fmt.Errorf("ListAll ticker aliases: %w", err)
	}

	r.inmemoryCache.Set(aliasCacheKey, aliases, cache.DefaultExpiration)
	return aliases, nil
}
