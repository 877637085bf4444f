// Package mapping resolves news text to a tradable ticker through the
// alias dictionary.
package mapping

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"stock-news-trader/internal/entity"
	"stock-news-trader/internal/trader/dto"
	"stock-news-trader/internal/trader/repository"
)

// MethodAliasDict is the mapping_method recorded for dictionary hits.
const MethodAliasDict = "ALIAS_DICT"

const snippetPadRunes = 40

// Mapper matches news text against the alias dictionary.
type Mapper struct {
	aliasRepo repository.TickerAliasRepository
}

// NewMapper creates a Mapper over the given dictionary source.
func NewMapper(aliasRepo repository.TickerAliasRepository) *Mapper {
	return &Mapper{aliasRepo: aliasRepo}
}

type aliasCandidate struct {
	alias string
	row   entity.TickerAlias
}

// Map scans title and body for the longest matching alias. Longest-first
// ordering makes "Samsung Electronics" win over the ambiguous "Samsung";
// a hit on an ambiguous row (empty ticker) yields no mapping at all.
// Returns (nil, nil) when nothing tradable matches.
func (m *Mapper) Map(ctx context.Context, title, body string) (*dto.MappingResult, error) {
	rows, err := m.aliasRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load alias dictionary: %w", err)
	}

	var candidates []aliasCandidate
	for _, row := range rows {
		for _, alias := range row.Aliases {
			if alias == "" {
				continue
			}
			candidates = append(candidates, aliasCandidate{alias: alias, row: row})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return utf8.RuneCountInString(candidates[i].alias) > utf8.RuneCountInString(candidates[j].alias)
	})

	text := title + "\n" + body
	for _, candidate := range candidates {
		idx := strings.Index(text, candidate.alias)
		if idx < 0 {
			continue
		}
		if candidate.row.Ticker == "" {
			return nil, nil
		}
		return &dto.MappingResult{
			Ticker:         candidate.row.Ticker,
			CompanyName:    candidate.row.CompanyName,
			Confidence:     candidate.row.Confidence,
			Method:         MethodAliasDict,
			ContextSnippet: snippetAround(text, idx, len(candidate.alias)),
		}, nil
	}

	return nil, nil
}

// snippetAround returns the match with up to snippetPadRunes of context
// on each side, sliced on rune boundaries.
func snippetAround(text string, byteIdx, byteLen int) string {
	runes := []rune(text)
	runeIdx := utf8.RuneCountInString(text[:byteIdx])
	runeLen := utf8.RuneCountInString(text[byteIdx : byteIdx+byteLen])

	start := runeIdx - snippetPadRunes
	if start < 0 {
		start = 0
	}
	end := runeIdx + runeLen + snippetPadRunes
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end])
}
