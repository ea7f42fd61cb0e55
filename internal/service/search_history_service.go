package service

import (
	"context"
	"fmt"
	"strings"

	"course_ai_backend/internal/repository"
)

// SearchHistoryService 维护每个客户端最近的搜索词
type SearchHistoryService struct {
	history *repository.SearchHistoryRepository
}

func NewSearchHistoryService(history *repository.SearchHistoryRepository) *SearchHistoryService {
	return &SearchHistoryService{history: history}
}

func (s *SearchHistoryService) Recent(ctx context.Context, clientID string) ([]string, error) {
	if clientID == "" {
		return nil, fmt.Errorf("client id is required")
	}
	return s.history.Load(ctx, clientID)
}

func (s *SearchHistoryService) Record(ctx context.Context, clientID, term string) error {
	if clientID == "" {
		return fmt.Errorf("client id is required")
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return fmt.Errorf("search term is required")
	}
	return s.history.Save(ctx, clientID, term)
}
