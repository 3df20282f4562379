// Package dashboard aggregates lifecycle statistics for the staff overview:
// totals by status, approval rate, and average time to decision. Results are
// cached in redis for a short TTL since the dashboard polls much faster than
// the numbers move.
package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/store"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/platform/redis"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	dErrors "github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain-errors"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/requestcontext"
)

const cacheKey = "dashboard:stats"

// Stats is the dashboard payload.
type Stats struct {
	Total               int            `json:"total"`
	ByStatus            map[string]int `json:"by_status"`
	PendingReview       int            `json:"pending_review"`
	ApprovalRate        float64        `json:"approval_rate"`
	AverageDecisionTime string         `json:"average_decision_time,omitempty"`
	GeneratedAt         time.Time      `json:"generated_at"`
}

// StatsSource supplies the raw aggregates; the application store
// implements it.
type StatsSource interface {
	Stats(ctx context.Context) (*store.Stats, error)
}

// Service computes and caches dashboard statistics.
type Service struct {
	source StatsSource
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New constructs the dashboard service. A nil cache disables caching; every
// request then recomputes from the store.
func New(source StatsSource, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Stats returns the dashboard statistics, serving from cache when fresh.
// Staff only; customers have no dashboard.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	role := requestcontext.Role(ctx)
	if role == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !role.IsStaff() {
		return nil, dErrors.New(dErrors.CodeForbidden, "dashboard is staff only")
	}

	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	raw, err := s.source.Stats(ctx)
	if err != nil {
		return nil, err
	}
	stats := build(raw, requestcontext.Now(ctx))
	s.toCache(ctx, stats)
	return stats, nil
}

// Invalidate drops the cached payload. The application service calls it
// after every submission and status transition.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.WarnContext(ctx, "dashboard cache invalidation failed", "error", err)
	}
}

func build(raw *store.Stats, now time.Time) *Stats {
	byStatus := make(map[string]int, len(raw.ByStatus))
	for status, n := range raw.ByStatus {
		byStatus[string(status)] = n
	}

	stats := &Stats{
		Total:         raw.Total,
		ByStatus:      byStatus,
		PendingReview: byStatus[string(domain.StatusPending)] + byStatus[string(domain.StatusManualReview)],
		GeneratedAt:   now.UTC(),
	}
	decided := byStatus[string(domain.StatusApproved)] + byStatus[string(domain.StatusRejected)]
	if decided > 0 {
		stats.ApprovalRate = float64(byStatus[string(domain.StatusApproved)]) / float64(decided)
	}
	if raw.AverageDecisionTime > 0 {
		stats.AverageDecisionTime = raw.AverageDecisionTime.String()
	}
	return stats
}

func (s *Service) fromCache(ctx context.Context) *Stats {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, cacheKey).Bytes()
	if err != nil {
		return nil
	}
	var stats Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		s.logger.WarnContext(ctx, "dashboard cache entry unreadable", "error", err)
		return nil
	}
	return &stats
}

func (s *Service) toCache(ctx context.Context, stats *Stats) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey, raw, s.ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "dashboard cache write failed", "error", err)
	}
}
