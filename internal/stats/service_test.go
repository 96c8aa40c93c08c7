package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifelink/internal/domain"
	"lifelink/internal/donor"
	"lifelink/internal/match"
	"lifelink/internal/recipient"
)

func seedStores(t *testing.T) (*donor.InMemoryStore, *recipient.InMemoryStore, *match.InMemoryStore) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	donors := donor.NewInMemoryStore()
	require.NoError(t, donors.Insert(ctx, donor.Donor{
		ID: "d1", Name: "A", BloodType: domain.BloodONeg, Organ: domain.OrganKidney,
		Location: "Lisbon", Age: 30, Active: true, Status: donor.StatusActive, CreatedAt: now,
	}))
	require.NoError(t, donors.Insert(ctx, donor.Donor{
		ID: "d2", Name: "B", BloodType: domain.BloodAPos, Organ: domain.OrganLiver,
		Location: "Porto", Age: 40, Active: true, Status: donor.StatusActive, CreatedAt: now,
	}))

	recipients := recipient.NewInMemoryStore()
	require.NoError(t, recipients.Insert(ctx, recipient.Recipient{
		ID: "r1", Name: "C", BloodType: domain.BloodABPos, OrganNeeded: domain.OrganKidney,
		Location: "Lisbon", Age: 31, UrgencyLevel: 8, Active: true, Status: recipient.StatusWaiting, RegisteredAt: now,
	}))

	matches := match.NewInMemoryStore()
	require.NoError(t, matches.Insert(ctx, match.Match{
		ID: "m1", DonorID: "d1", RecipientID: "r1", Organ: domain.OrganKidney,
		Score: 90, Status: match.StatusPending, CreatedAt: now,
	}))
	require.NoError(t, matches.Insert(ctx, match.Match{
		ID: "m2", DonorID: "d2", RecipientID: "r1", Organ: domain.OrganLiver,
		Score: 61, Status: match.StatusComplete, CreatedAt: now,
	}))
	return donors, recipients, matches
}

func TestRecomputeBuildsSnapshot(t *testing.T) {
	ctx := context.Background()
	donors, recipients, matches := seedStores(t)
	svc := NewService(donors, recipients, matches, NewInMemoryCache())

	snapshot, err := svc.Recompute(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, snapshot.TotalDonors)
	assert.Equal(t, 1, snapshot.TotalRecipients)
	assert.Equal(t, 1, snapshot.PendingMatches)
	assert.Equal(t, 1, snapshot.CompletedMatches)
	assert.InDelta(t, 75.5, snapshot.AverageScore, 1e-9)
	assert.Equal(t, map[string]int{"kidney": 1, "liver": 1}, snapshot.OrganDistribution)
}

func TestPublishMatchRateRefreshesCache(t *testing.T) {
	ctx := context.Background()
	donors, recipients, matches := seedStores(t)
	cache := NewInMemoryCache()
	svc := NewService(donors, recipients, matches, cache)

	require.NoError(t, svc.PublishMatchRate(ctx, 66.7))

	snapshot, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 66.7, snapshot.AIMatchRate, 1e-9)
}

func TestLatestRecomputesWhenCacheEmpty(t *testing.T) {
	ctx := context.Background()
	donors, recipients, matches := seedStores(t)
	svc := NewService(donors, recipients, matches, NewInMemoryCache())

	snapshot, err := svc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, snapshot.TotalDonors)

	// Second read comes from the cache and stays identical.
	again, err := svc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, snapshot, again)
}
