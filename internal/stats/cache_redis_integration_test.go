//go:build integration

package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lifelink/internal/platform/config"
	platformredis "lifelink/internal/platform/redis"
	"lifelink/internal/stats"
	"lifelink/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *stats.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	client, err := platformredis.New(config.RedisConfig{
		URL:          s.redis.URL,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	s.Require().NoError(err)
	s.cache = stats.NewRedisCache(client)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestGetMissing() {
	_, ok, err := s.cache.Get(context.Background())
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisCacheSuite) TestPutGetRoundtrip() {
	ctx := context.Background()
	snapshot := stats.Snapshot{
		TotalDonors:       4,
		TotalRecipients:   9,
		PendingMatches:    3,
		CompletedMatches:  1,
		AverageScore:      77.5,
		AIMatchRate:       66.7,
		OrganDistribution: map[string]int{"kidney": 2, "heart": 1},
		GeneratedAt:       time.Now().UTC().Truncate(time.Second),
	}

	s.Require().NoError(s.cache.Put(ctx, snapshot))

	got, ok, err := s.cache.Get(ctx)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(snapshot, got)
}

func (s *RedisCacheSuite) TestPutReplacesWholeSnapshot() {
	ctx := context.Background()
	first := stats.Snapshot{TotalDonors: 1, OrganDistribution: map[string]int{"kidney": 1}}
	second := stats.Snapshot{TotalDonors: 2, OrganDistribution: map[string]int{"liver": 2}}

	s.Require().NoError(s.cache.Put(ctx, first))
	s.Require().NoError(s.cache.Put(ctx, second))

	got, ok, err := s.cache.Get(ctx)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(second, got)
}
