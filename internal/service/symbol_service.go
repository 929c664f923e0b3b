package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/model"
)

// SymbolDirectory is the remote listing source.
type SymbolDirectory interface {
	FetchListing(ctx context.Context) ([]model.SymbolInfo, error)
}

// SymbolService caches the exchange listing and answers symbol searches. The
// listing changes rarely, so it is cached for a long TTL (default 24h).
type SymbolService struct {
	directory SymbolDirectory
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu        sync.Mutex
	listing   []model.SymbolInfo
	fetchedAt time.Time
}

// NewSymbolService creates a new symbol service
func NewSymbolService(directory SymbolDirectory, ttl time.Duration, logger *zap.Logger) *SymbolService {
	return &SymbolService{
		directory: directory,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// All returns the full symbol listing, refreshing it when stale. A refresh
// failure falls back to the previous listing if one exists.
func (s *SymbolService) All(ctx context.Context) ([]model.SymbolInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listing != nil && s.now().Sub(s.fetchedAt) < s.ttl {
		return s.listing, nil
	}

	listing, err := s.directory.FetchListing(ctx)
	if err != nil {
		if s.listing != nil {
			s.logger.Warn("Symbol listing refresh failed, serving stale data", zap.Error(err))
			return s.listing, nil
		}
		return nil, err
	}

	s.listing = listing
	s.fetchedAt = s.now()
	return s.listing, nil
}

// Search returns listings whose symbol or company name contains the query,
// case-insensitive.
func (s *SymbolService) Search(ctx context.Context, query string) ([]model.SymbolInfo, error) {
	listing, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return []model.SymbolInfo{}, nil
	}

	var matches []model.SymbolInfo
	for _, info := range listing {
		if strings.Contains(strings.ToUpper(info.Symbol), q) ||
			strings.Contains(strings.ToUpper(info.CompanyName), q) {
			matches = append(matches, info)
		}
	}
	return matches, nil
}
