package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifelink/internal/domain"
	"lifelink/internal/donor"
	"lifelink/internal/ledger"
	"lifelink/internal/match"
	"lifelink/internal/recipient"
	dErrors "lifelink/pkg/domain-errors"
)

func TestOnDonorRegistered_CreatesMatchesForCompatibleRecipients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addDonor(t, "d1", func(d *donor.Donor) { d.BloodType = domain.BloodABPos })
	f.addRecipient(t, "r1")
	// AB+ can only donate to AB+; the scorer gates this pair to zero.
	f.addRecipient(t, "r2", func(r *recipient.Recipient) {
		r.BloodType = domain.BloodONeg
		r.Name = "Incompatible"
	})
	// Different organ, must never be paired with d1.
	f.addRecipient(t, "r3", func(r *recipient.Recipient) { r.OrganNeeded = domain.OrganHeart })

	require.NoError(t, f.svc.OnDonorRegistered(ctx, "d1"))

	all, err := f.matches.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	m := all[0]
	assert.Equal(t, "d1", m.DonorID)
	assert.Equal(t, "r1", m.RecipientID)
	assert.Equal(t, domain.OrganKidney, m.Organ)
	assert.Equal(t, match.StatusPending, m.Status)
	assert.Equal(t, 100, m.Score)
	assert.Equal(t, testNow, m.CreatedAt)
}

func TestOnDonorRegistered_UnknownDonor(t *testing.T) {
	f := newFixture(t)

	err := f.svc.OnDonorRegistered(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestOnRecipientRegistered_CreatesMatchesForActiveDonors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addDonor(t, "d1")
	f.addDonor(t, "d2", func(d *donor.Donor) { d.Location = "Porto" })
	// Withdrawn donors never enter matching.
	f.addDonor(t, "d3", func(d *donor.Donor) {
		d.Active = false
		d.Status = donor.StatusWithdrawn
	})
	f.addRecipient(t, "r1")

	require.NoError(t, f.svc.OnRecipientRegistered(ctx, "r1"))

	all, err := f.matches.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, m := range all {
		assert.Equal(t, "r1", m.RecipientID)
		assert.NotEqual(t, "d3", m.DonorID)
	}
}

func TestOnDonorRegistered_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addDonor(t, "d1")
	f.addRecipient(t, "r1")

	require.NoError(t, f.svc.OnDonorRegistered(ctx, "d1"))
	require.NoError(t, f.svc.OnDonorRegistered(ctx, "d1"))

	all, err := f.matches.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "re-registering the same donor must not duplicate the pair")
}

func TestOnDonorRegistered_SkipsBelowThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addDonor(t, "d1", func(d *donor.Donor) {
		d.Age = 20
		d.Location = "Lisbon"
	})
	// Low urgency, barely waited, far away, large age gap: lands under the
	// acceptance threshold while still blood compatible.
	f.addRecipient(t, "r1", func(r *recipient.Recipient) {
		r.Age = 65
		r.Location = "Porto"
		r.UrgencyLevel = 1
		r.RegisteredAt = testNow
	})

	require.NoError(t, f.svc.OnDonorRegistered(ctx, "d1"))

	all, err := f.matches.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOnDonorRegistered_EmitsLedgerEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addDonor(t, "d1")
	f.addRecipient(t, "r1")

	require.NoError(t, f.svc.OnDonorRegistered(ctx, "d1"))

	events, err := f.ledger.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ledger.EventMatchCreated, events[0].Type)
	assert.NotEmpty(t, events[0].TxHash)
}

// failingMatchStore rejects inserts for chosen recipients so tests can prove a
// single bad pair does not abort the rest of an orchestration pass.
type failingMatchStore struct {
	match.Store
	failRecipients map[string]bool
}

func (s *failingMatchStore) Insert(ctx context.Context, m match.Match) error {
	if s.failRecipients[m.RecipientID] {
		return dErrors.New(dErrors.CodePersistence, "simulated insert failure")
	}
	return s.Store.Insert(ctx, m)
}

func TestOnDonorRegistered_ContinuesPastPersistenceFailure(t *testing.T) {
	f := newFixture(t, func(f *fixture) {
		f.matches = &failingMatchStore{
			Store:          match.NewInMemoryStore(),
			failRecipients: map[string]bool{"r1": true},
		}
	})
	ctx := context.Background()

	f.addDonor(t, "d1")
	f.addRecipient(t, "r1")
	f.addRecipient(t, "r2")

	require.NoError(t, f.svc.OnDonorRegistered(ctx, "d1"))

	all, err := f.matches.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "r2", all[0].RecipientID)
}
