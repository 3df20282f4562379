//go:build integration

package dashboard_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/store"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/dashboard"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/platform/redis"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/requestcontext"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/testutil/containers"
)

type countingSource struct {
	stats *store.Stats
	calls int
}

func (c *countingSource) Stats(context.Context) (*store.Stats, error) {
	c.calls++
	return c.stats, nil
}

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) officerCtx() context.Context {
	ctx := requestcontext.WithTime(context.Background(), time.Now().UTC())
	return requestcontext.WithActor(ctx, domain.NewUserID(), "officer@bank.test", domain.RoleOfficer)
}

func (s *RedisCacheSuite) TestCacheRoundTrip() {
	source := &countingSource{stats: &store.Stats{
		Total: 4,
		ByStatus: map[domain.LoanStatus]int{
			domain.StatusApproved: 3,
			domain.StatusRejected: 1,
		},
		AverageDecisionTime: time.Hour,
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := dashboard.New(source, &redis.Client{Client: s.redis.Client}, time.Minute, logger)

	first, err := svc.Stats(s.officerCtx())
	s.Require().NoError(err)
	second, err := svc.Stats(s.officerCtx())
	s.Require().NoError(err)

	s.Equal(1, source.calls, "second read must come from redis")
	s.Equal(first.GeneratedAt, second.GeneratedAt)
	s.InDelta(0.75, second.ApprovalRate, 1e-9)

	svc.Invalidate(context.Background())
	_, err = svc.Stats(s.officerCtx())
	s.Require().NoError(err)
	s.Equal(2, source.calls)
}
