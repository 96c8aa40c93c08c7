package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifelink/internal/donor"
	"lifelink/internal/ledger"
	"lifelink/internal/match"
	"lifelink/internal/recipient"
	dErrors "lifelink/pkg/domain-errors"
)

// seedPendingMatch registers a compatible pair and runs the orchestrator so
// lifecycle tests start from a real pending match.
func seedPendingMatch(t *testing.T, f *fixture) match.Match {
	t.Helper()
	f.addDonor(t, "d1")
	f.addRecipient(t, "r1")
	require.NoError(t, f.svc.OnDonorRegistered(context.Background(), "d1"))

	all, err := f.matches.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	return all[0]
}

func TestSetStatus_Approve(t *testing.T) {
	f := newFixture(t)
	m := seedPendingMatch(t, f)
	ctx := context.Background()

	updated, err := f.svc.SetStatus(ctx, m.ID, match.StatusApproved, "dr-gomes")
	require.NoError(t, err)

	assert.Equal(t, match.StatusApproved, updated.Status)
	assert.Equal(t, "dr-gomes", updated.ApprovedBy)
	require.NotNil(t, updated.ApprovedAt)
	assert.Equal(t, testNow, *updated.ApprovedAt)

	d, err := f.donors.FindByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, donor.StatusMatched, d.Status)
	r, err := f.recipients.FindByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, recipient.StatusMatched, r.Status)
}

func TestSetStatus_Reject(t *testing.T) {
	f := newFixture(t)
	m := seedPendingMatch(t, f)
	ctx := context.Background()

	updated, err := f.svc.SetStatus(ctx, m.ID, match.StatusRejected, "dr-gomes")
	require.NoError(t, err)

	assert.Equal(t, match.StatusRejected, updated.Status)
	assert.Empty(t, updated.ApprovedBy)
	assert.Nil(t, updated.ApprovedAt)

	// Both parties stay in the pool for other matches.
	d, err := f.donors.FindByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, donor.StatusActive, d.Status)
	r, err := f.recipients.FindByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, recipient.StatusWaiting, r.Status)
}

func TestSetStatus_Complete(t *testing.T) {
	f := newFixture(t)
	m := seedPendingMatch(t, f)
	ctx := context.Background()

	_, err := f.svc.SetStatus(ctx, m.ID, match.StatusApproved, "dr-gomes")
	require.NoError(t, err)
	updated, err := f.svc.SetStatus(ctx, m.ID, match.StatusComplete, "dr-gomes")
	require.NoError(t, err)

	assert.Equal(t, match.StatusComplete, updated.Status)
	d, err := f.donors.FindByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, donor.StatusDonated, d.Status)
	r, err := f.recipients.FindByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, recipient.StatusReceived, r.Status)
}

func TestSetStatus_IllegalTransitions(t *testing.T) {
	cases := []struct {
		name string
		via  []match.Status
		to   match.Status
	}{
		{name: "pending to completed", to: match.StatusComplete},
		{name: "rejected to approved", via: []match.Status{match.StatusRejected}, to: match.StatusApproved},
		{name: "approved to rejected", via: []match.Status{match.StatusApproved}, to: match.StatusRejected},
		{name: "completed to rejected", via: []match.Status{match.StatusApproved, match.StatusComplete}, to: match.StatusRejected},
		{name: "approved twice", via: []match.Status{match.StatusApproved}, to: match.StatusApproved},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			m := seedPendingMatch(t, f)
			ctx := context.Background()

			for _, status := range tc.via {
				_, err := f.svc.SetStatus(ctx, m.ID, status, "dr-gomes")
				require.NoError(t, err)
			}
			before, err := f.matches.FindByID(ctx, m.ID)
			require.NoError(t, err)

			_, err = f.svc.SetStatus(ctx, m.ID, tc.to, "dr-gomes")
			require.Error(t, err)
			assert.Equal(t, dErrors.CodeIllegalTransition, dErrors.CodeOf(err))

			after, err := f.matches.FindByID(ctx, m.ID)
			require.NoError(t, err)
			assert.Equal(t, before, after, "a failed transition must not change the match")
		})
	}
}

// TestSetStatus_ConcurrentApproveReject fires an approval and a rejection at
// the same pending match at once. Exactly one may win; the loser must fail
// with an illegal transition and leave donor and recipient consistent with
// the final match status.
func TestSetStatus_ConcurrentApproveReject(t *testing.T) {
	for i := 0; i < 50; i++ {
		f := newFixture(t)
		m := seedPendingMatch(t, f)
		ctx := context.Background()

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for idx, status := range []match.Status{match.StatusApproved, match.StatusRejected} {
			wg.Add(1)
			go func(idx int, status match.Status) {
				defer wg.Done()
				_, errs[idx] = f.svc.SetStatus(ctx, m.ID, status, "dr-gomes")
			}(idx, status)
		}
		wg.Wait()

		approveErr, rejectErr := errs[0], errs[1]
		require.True(t, (approveErr == nil) != (rejectErr == nil),
			"exactly one transition must win: approve=%v reject=%v", approveErr, rejectErr)

		final, err := f.matches.FindByID(ctx, m.ID)
		require.NoError(t, err)
		d, err := f.donors.FindByID(ctx, "d1")
		require.NoError(t, err)
		r, err := f.recipients.FindByID(ctx, "r1")
		require.NoError(t, err)

		if approveErr == nil {
			assert.Equal(t, dErrors.CodeIllegalTransition, dErrors.CodeOf(rejectErr))
			assert.Equal(t, match.StatusApproved, final.Status)
			assert.Equal(t, donor.StatusMatched, d.Status)
			assert.Equal(t, recipient.StatusMatched, r.Status)
		} else {
			assert.Equal(t, dErrors.CodeIllegalTransition, dErrors.CodeOf(approveErr))
			assert.Equal(t, match.StatusRejected, final.Status)
			assert.Equal(t, donor.StatusActive, d.Status)
			assert.Equal(t, recipient.StatusWaiting, r.Status)
		}
	}
}

func TestSetStatus_Validation(t *testing.T) {
	f := newFixture(t)
	m := seedPendingMatch(t, f)
	ctx := context.Background()

	_, err := f.svc.SetStatus(ctx, m.ID, "archived", "dr-gomes")
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))

	_, err = f.svc.SetStatus(ctx, m.ID, match.StatusApproved, "")
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))

	_, err = f.svc.SetStatus(ctx, "no-such-match", match.StatusApproved, "dr-gomes")
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

// brokenDonorStore fails every status update so the test can prove the match
// row is rolled back with it.
type brokenDonorStore struct {
	donor.Store
}

func (s *brokenDonorStore) UpdateStatus(context.Context, string, donor.Status) error {
	return dErrors.New(dErrors.CodePersistence, "simulated write failure")
}

func TestSetStatus_RollsBackWhenSideEffectFails(t *testing.T) {
	f := newFixture(t)
	m := seedPendingMatch(t, f)
	f.svc.donors = &brokenDonorStore{Store: f.donors}
	ctx := context.Background()

	_, err := f.svc.SetStatus(ctx, m.ID, match.StatusApproved, "dr-gomes")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodePersistence, dErrors.CodeOf(err))

	after, err := f.matches.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusPending, after.Status, "the match must stay pending when the group fails")
}

func TestSetStatus_EmitsLedgerEvent(t *testing.T) {
	f := newFixture(t)
	m := seedPendingMatch(t, f)
	ctx := context.Background()

	_, err := f.svc.SetStatus(ctx, m.ID, match.StatusApproved, "dr-gomes")
	require.NoError(t, err)

	events, err := f.ledger.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ledger.EventMatchApproved, events[0].Type)
	assert.Equal(t, ledger.EventMatchCreated, events[1].Type)
}
