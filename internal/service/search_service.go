package service

import (
	"context"
	"log/slog"
	"strings"

	"homestash/internal/ai"
	"homestash/internal/config"
	"homestash/internal/models"
	"homestash/internal/observability"
	"homestash/internal/repository"
)

// SearchResult is one semantic search hit.
type SearchResult struct {
	Item  *models.Item `json:"item"`
	Score float64      `json:"score"`
}

// SearchService answers natural-language queries over a user's items. With
// an AI endpoint configured it asks the model to rank candidates; without
// one, or when the model call fails, it falls back to local substring
// matching over names, locations, and category names.
type SearchService struct {
	items  repository.ItemRepository
	client *ai.Client
	cfg    *config.Config
}

// NewSearchService creates a new search service. client may be nil when no
// AI endpoint is configured.
func NewSearchService(items repository.ItemRepository, client *ai.Client, cfg *config.Config) *SearchService {
	return &SearchService{items: items, client: client, cfg: cfg}
}

// Search returns the user's items matching the query, best first, plus
// whether the AI ranker produced the results.
func (s *SearchService) Search(ctx context.Context, userID uint, query string) ([]SearchResult, bool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, false, models.NewValidationError("Search query is required")
	}

	items, err := s.items.ListAllByUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if len(items) == 0 {
		return []SearchResult{}, false, nil
	}

	if s.client != nil && s.cfg.AIConfigured() {
		results, err := s.rankWithAI(ctx, query, items)
		if err == nil {
			observability.AIRequestsTotal.WithLabelValues("search", "success").Inc()
			return results, true, nil
		}
		observability.AIRequestsTotal.WithLabelValues("search", "failure").Inc()
		observability.Logger.Warn("AI search failed, using local fallback",
			slog.String("error", err.Error()))
	}

	return substringSearch(query, items), false, nil
}

func (s *SearchService) rankWithAI(ctx context.Context, query string, items []*models.Item) ([]SearchResult, error) {
	byID := make(map[uint]*models.Item, len(items))
	candidates := make([]ai.SearchCandidate, 0, len(items))
	for _, item := range items {
		byID[item.ID] = item
		names := make([]string, 0, len(item.Categories))
		for _, c := range item.Categories {
			names = append(names, c.Name)
		}
		candidates = append(candidates, ai.SearchCandidate{
			ID:         item.ID,
			Name:       item.Name,
			Location:   item.Location,
			Categories: names,
		})
	}

	ids, err := s.client.RankItems(ctx, query, candidates)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(ids))
	for rank, id := range ids {
		item := byID[id]
		if item == nil {
			continue
		}
		results = append(results, SearchResult{
			Item:  item,
			Score: 1.0 - float64(rank)/float64(len(ids)),
		})
	}
	return results, nil
}

// substringSearch is the local fallback: case-insensitive substring match
// over name, location, and category names.
func substringSearch(query string, items []*models.Item) []SearchResult {
	needle := strings.ToLower(query)
	results := []SearchResult{}
	for _, item := range items {
		if matchesSubstring(needle, item) {
			results = append(results, SearchResult{Item: item, Score: 0})
		}
	}
	return results
}

func matchesSubstring(needle string, item *models.Item) bool {
	if strings.Contains(strings.ToLower(item.Name), needle) ||
		strings.Contains(strings.ToLower(item.Location), needle) {
		return true
	}
	for _, c := range item.Categories {
		if strings.Contains(strings.ToLower(c.Name), needle) {
			return true
		}
	}
	return false
}
