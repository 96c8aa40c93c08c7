package runner

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lifelink/internal/match/service"
	dErrors "lifelink/pkg/domain-errors"
)

type countingService struct {
	calls atomic.Int64
	err   error
}

func (s *countingService) RunBatch(context.Context) (service.BatchResult, error) {
	s.calls.Add(1)
	return service.BatchResult{}, s.err
}

func TestRun_TriggersOnInterval(t *testing.T) {
	svc := &countingService{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := New(svc, 5*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return svc.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestRun_KeepsGoingAfterFailures(t *testing.T) {
	svc := &countingService{err: dErrors.New(dErrors.CodeConflict, "batch pass already running")}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := New(svc, 5*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return svc.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
