package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lifelink/internal/domain"
	"lifelink/internal/donor"
	"lifelink/internal/ledger"
	"lifelink/internal/match"
	"lifelink/internal/recipient"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type rateRecorder struct {
	rates []float64
}

func (r *rateRecorder) PublishMatchRate(_ context.Context, rate float64) error {
	r.rates = append(r.rates, rate)
	return nil
}

type fixture struct {
	svc        *Service
	donors     *donor.InMemoryStore
	recipients *recipient.InMemoryStore
	matches    match.Store
	ledger     *ledger.InMemoryStore
	rates      *rateRecorder
}

func newFixture(t *testing.T, opts ...func(*fixture)) *fixture {
	t.Helper()
	f := &fixture{
		donors:     donor.NewInMemoryStore(),
		recipients: recipient.NewInMemoryStore(),
		matches:    match.NewInMemoryStore(),
		ledger:     ledger.NewInMemoryStore(),
		rates:      &rateRecorder{},
	}
	for _, opt := range opts {
		opt(f)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewService(
		f.donors,
		f.recipients,
		f.matches,
		NewMemoryTxRunner(),
		ledger.NewPublisher(f.ledger, logger),
		f.rates,
		logger,
		WithClock(func() time.Time { return testNow }),
	)
	return f
}

func (f *fixture) addDonor(t *testing.T, id string, mutate ...func(*donor.Donor)) donor.Donor {
	t.Helper()
	d := donor.Donor{
		ID:        id,
		Name:      "Donor " + id,
		BloodType: domain.BloodONeg,
		Organ:     domain.OrganKidney,
		Location:  "Lisbon",
		Age:       30,
		Active:    true,
		Status:    donor.StatusActive,
		CreatedAt: testNow.AddDate(0, -1, 0),
	}
	for _, fn := range mutate {
		fn(&d)
	}
	require.NoError(t, f.donors.Insert(context.Background(), d))
	return d
}

func (f *fixture) addRecipient(t *testing.T, id string, mutate ...func(*recipient.Recipient)) recipient.Recipient {
	t.Helper()
	r := recipient.Recipient{
		ID:           id,
		Name:         "Recipient " + id,
		BloodType:    domain.BloodABPos,
		OrganNeeded:  domain.OrganKidney,
		Location:     "Lisbon",
		Age:          30,
		UrgencyLevel: 10,
		Active:       true,
		Status:       recipient.StatusWaiting,
		RegisteredAt: testNow.AddDate(0, 0, -120),
	}
	for _, fn := range mutate {
		fn(&r)
	}
	require.NoError(t, f.recipients.Insert(context.Background(), r))
	return r
}
