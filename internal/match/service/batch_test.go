package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifelink/internal/domain"
	"lifelink/internal/match"
	"lifelink/internal/recipient"
	dErrors "lifelink/pkg/domain-errors"
)

// seedBatchPopulation builds one universal donor and four recipients whose
// scores and tie-breaking attributes are fully determined:
//
//	rOld, rNew score 100 and differ only in registration date
//	rUrgent, rCalm score 80 and differ only in urgency
func seedBatchPopulation(t *testing.T, f *fixture) {
	t.Helper()
	f.addDonor(t, "d1")
	f.addRecipient(t, "rOld", func(r *recipient.Recipient) {
		r.RegisteredAt = testNow.AddDate(0, 0, -150)
	})
	f.addRecipient(t, "rNew", func(r *recipient.Recipient) {
		r.RegisteredAt = testNow.AddDate(0, 0, -120)
	})
	f.addRecipient(t, "rUrgent", func(r *recipient.Recipient) {
		r.UrgencyLevel = 10
		r.RegisteredAt = testNow
	})
	f.addRecipient(t, "rCalm", func(r *recipient.Recipient) {
		r.UrgencyLevel = 5
		r.RegisteredAt = testNow.AddDate(0, 0, -50)
	})
}

func TestRunBatch_OrdersByScoreUrgencyRegistration(t *testing.T) {
	f := newFixture(t)
	seedBatchPopulation(t, f)

	result, err := f.svc.RunBatch(context.Background())
	require.NoError(t, err)

	require.Equal(t, 4, result.MatchesFound)
	var order []string
	for _, m := range result.Matches {
		order = append(order, m.RecipientID)
	}
	assert.Equal(t, []string{"rOld", "rNew", "rUrgent", "rCalm"}, order)
	assert.Equal(t, 100, result.Matches[0].Score)
	assert.Equal(t, 100, result.Matches[1].Score)
	assert.Equal(t, 80, result.Matches[2].Score)
	assert.Equal(t, 80, result.Matches[3].Score)
}

func TestRunBatch_PublishesMatchRate(t *testing.T) {
	f := newFixture(t)
	seedBatchPopulation(t, f)

	result, err := f.svc.RunBatch(context.Background())
	require.NoError(t, err)

	// Two of the four matches reach the high-confidence score.
	assert.InDelta(t, 50.0, result.AIMatchRate, 0.0001)
	require.Len(t, f.rates.rates, 1)
	assert.InDelta(t, 50.0, f.rates.rates[0], 0.0001)
}

func TestRunBatch_SkipsExistingPairs(t *testing.T) {
	f := newFixture(t)
	seedBatchPopulation(t, f)
	ctx := context.Background()

	require.NoError(t, f.matches.Insert(ctx, match.Match{
		ID:          "m-existing",
		DonorID:     "d1",
		RecipientID: "rOld",
		Organ:       domain.OrganKidney,
		Score:       100,
		Status:      match.StatusPending,
		CreatedAt:   testNow.Add(-time.Hour),
	}))

	result, err := f.svc.RunBatch(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, result.MatchesFound)
	for _, m := range result.Matches {
		assert.NotEqual(t, "rOld", m.RecipientID)
	}
	all, err := f.matches.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRunBatch_EmptyPopulations(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.RunBatch(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.MatchesFound)
	assert.Empty(t, result.Matches)
	assert.Zero(t, result.AIMatchRate)
	assert.Empty(t, f.rates.rates, "no rate is published for an empty pass")
}

func TestRunBatch_RejectsOverlappingRun(t *testing.T) {
	f := newFixture(t)
	f.svc.batchRunning.Store(true)

	_, err := f.svc.RunBatch(context.Background())
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
}
