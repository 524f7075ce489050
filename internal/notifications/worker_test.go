package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockQueueRepo struct {
	Repository

	pending []*QueueItem
	sent    []string
	failed  []string
	retried []string
	nextAt  time.Time
}

func (m *mockQueueRepo) FetchPending(_ context.Context, _ int) ([]*QueueItem, error) {
	items := m.pending
	m.pending = nil
	return items, nil
}

func (m *mockQueueRepo) MarkAsSent(_ context.Context, id string) error {
	m.sent = append(m.sent, id)
	return nil
}

func (m *mockQueueRepo) MarkAsFailed(_ context.Context, id string, _ error) error {
	m.failed = append(m.failed, id)
	return nil
}

func (m *mockQueueRepo) MarkForRetry(_ context.Context, id string, _ error, nextAttemptAt time.Time) error {
	m.retried = append(m.retried, id)
	m.nextAt = nextAttemptAt
	return nil
}

type mockSender struct {
	err   error
	calls []string
}

func (m *mockSender) Send(_ context.Context, to, _, _ string) error {
	m.calls = append(m.calls, to)
	return m.err
}

func newTestWorker(repo *mockQueueRepo, sender *mockSender) *Worker {
	config := DefaultWorkerConfig()
	config.InitialBackoff = time.Second
	return NewWorker(config, repo, sender)
}

func TestWorker_ProcessBatch_Success(t *testing.T) {
	repo := &mockQueueRepo{pending: []*QueueItem{
		{ID: "q1", Email: "a@example.com", MaxAttempts: 3},
		{ID: "q2", Email: "b@example.com", MaxAttempts: 3},
	}}
	sender := &mockSender{}
	w := newTestWorker(repo, sender)

	w.processBatch(context.Background(), 0)

	assert.Equal(t, []string{"a@example.com", "b@example.com"}, sender.calls)
	assert.Equal(t, []string{"q1", "q2"}, repo.sent)
	assert.Empty(t, repo.failed)
	assert.Empty(t, repo.retried)
}

func TestWorker_ProcessItem_RetryableErrorSchedulesRetry(t *testing.T) {
	repo := &mockQueueRepo{}
	sender := &mockSender{err: NewRetryableError(errors.New("451 local error"))}
	w := newTestWorker(repo, sender)

	w.processItem(context.Background(), &QueueItem{ID: "q1", Attempts: 0, MaxAttempts: 3})

	require.Equal(t, []string{"q1"}, repo.retried)
	assert.Empty(t, repo.failed)
	assert.True(t, repo.nextAt.After(time.Now()))
}

func TestWorker_ProcessItem_NonRetryableErrorFails(t *testing.T) {
	repo := &mockQueueRepo{}
	sender := &mockSender{err: NewNonRetryableError(errors.New("550 no such user"))}
	w := newTestWorker(repo, sender)

	w.processItem(context.Background(), &QueueItem{ID: "q1", Attempts: 0, MaxAttempts: 3})

	assert.Equal(t, []string{"q1"}, repo.failed)
	assert.Empty(t, repo.retried)
}

func TestWorker_ProcessItem_MaxAttemptsExceeded(t *testing.T) {
	repo := &mockQueueRepo{}
	sender := &mockSender{err: NewRetryableError(errors.New("451 local error"))}
	w := newTestWorker(repo, sender)

	w.processItem(context.Background(), &QueueItem{ID: "q1", Attempts: 2, MaxAttempts: 3})

	assert.Equal(t, []string{"q1"}, repo.failed)
	assert.Empty(t, repo.retried)
}

func TestWorker_CalculateNextAttempt(t *testing.T) {
	config := WorkerConfig{
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        5 * time.Minute,
		BackoffMultiplier: 2.0,
	}

	worker := &Worker{config: config}

	tests := []struct {
		name            string
		attempt         int
		expectedBackoff time.Duration
	}{
		{"first retry", 1, 1 * time.Second},
		{"second retry", 2, 2 * time.Second},
		{"third retry", 3, 4 * time.Second},
		{"fourth retry", 4, 8 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := time.Now()
			result := worker.calculateNextAttempt(tt.attempt)
			after := time.Now()

			expectedMin := before.Add(tt.expectedBackoff)
			expectedMax := after.Add(tt.expectedBackoff)

			assert.True(t, result.After(expectedMin) || result.Equal(expectedMin))
			assert.True(t, result.Before(expectedMax) || result.Equal(expectedMax))
		})
	}
}

func TestWorker_CalculateNextAttempt_MaxBackoff(t *testing.T) {
	config := WorkerConfig{
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}

	worker := &Worker{config: config}

	before := time.Now()
	result := worker.calculateNextAttempt(100)

	assert.True(t, !result.Before(before.Add(config.MaxBackoff)))
	assert.True(t, result.Before(time.Now().Add(config.MaxBackoff+time.Second)))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "retryable error",
			err:      NewRetryableError(errors.New("temporary error")),
			expected: true,
		},
		{
			name:     "non-retryable error",
			err:      NewNonRetryableError(errors.New("permanent error")),
			expected: false,
		},
		{
			name:     "generic error defaults to retryable",
			err:      errors.New("unknown error"),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isRetryable(tt.err))
		})
	}
}

func TestRetryableError(t *testing.T) {
	originalErr := errors.New("original error")

	t.Run("retryable error", func(t *testing.T) {
		err := NewRetryableError(originalErr)

		assert.Equal(t, "original error", err.Error())
		assert.True(t, err.IsRetryable())
		assert.Equal(t, originalErr, errors.Unwrap(err))
	})

	t.Run("non-retryable error", func(t *testing.T) {
		err := NewNonRetryableError(originalErr)

		assert.Equal(t, "original error", err.Error())
		assert.False(t, err.IsRetryable())
		assert.Equal(t, originalErr, errors.Unwrap(err))
	})
}
