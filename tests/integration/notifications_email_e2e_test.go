//go:build integration

package integration

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/notifications"
	"github.com/opsdesk/opsdesk/internal/notifications/email"
	notificationspostgres "github.com/opsdesk/opsdesk/internal/notifications/postgres"
)

// newMailpitWorker builds an outbox worker delivering to the Mailpit
// container. The app-level worker is disabled in TestMain so this one owns
// the queue for the duration of the test.
func newMailpitWorker(t *testing.T) (*notifications.Worker, *notificationspostgres.Repository) {
	t.Helper()

	sender, err := email.NewSender(email.Config{
		Enabled:     true,
		SMTPHost:    mailpitContainer.SMTPHost,
		SMTPPort:    mailpitContainer.SMTPPort,
		FromAddress: "OpsDesk <opsdesk@example.com>",
	})
	require.NoError(t, err)

	repo := notificationspostgres.NewRepository(testDB)
	worker := notifications.NewWorker(notifications.WorkerConfig{
		BatchSize:         10,
		PollInterval:      100 * time.Millisecond,
		MaxAttempts:       3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
		NumWorkers:        1,
	}, repo, sender)
	return worker, repo
}

func TestEmailDelivery(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, mailpitClient.DeleteAllMessages())

	_, userID := createUser(t, "RESPONDER", "mail-pass-1")

	worker, repo := newMailpitWorker(t)

	item := &notifications.QueueItem{
		RecipientID: userID,
		Email:       "responder@example.com",
		Subject:     "[CRITICAL] SLA warning: 30m remaining",
		Body:        "Incident INC-2026-0042 is approaching its deadline.",
		MaxAttempts: 3,
	}
	require.NoError(t, repo.Enqueue(ctx, item))

	worker.Start(ctx)
	defer worker.Stop()

	messages, err := mailpitClient.WaitForMessages(1, 10*time.Second)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	assert.Equal(t, "[CRITICAL] SLA warning: 30m remaining", messages[0].Subject)
	require.NotEmpty(t, messages[0].To)
	assert.Equal(t, "responder@example.com", messages[0].To[0].Address)

	full, err := mailpitClient.GetMessageByID(messages[0].ID)
	require.NoError(t, err)
	assert.True(t, strings.Contains(full.Text, "INC-2026-0042") ||
		strings.Contains(full.Snippet, "INC-2026-0042"))

	// the queue row is finalized
	require.Eventually(t, func() bool {
		stats, err := repo.GetQueueStats(ctx)
		return err == nil && stats.Pending == 0 && stats.Processing == 0
	}, 5*time.Second, 100*time.Millisecond)
}

func TestEmailDelivery_RetryExhaustion(t *testing.T) {
	ctx := context.Background()

	_, userID := createUser(t, "RESPONDER", "mail-pass-1")

	// sender pointed at a closed port: connection refused is retryable
	sender, err := email.NewSender(email.Config{
		Enabled:     true,
		SMTPHost:    "127.0.0.1",
		SMTPPort:    1, // nothing listens here
		FromAddress: "opsdesk@example.com",
	})
	require.NoError(t, err)

	repo := notificationspostgres.NewRepository(testDB)
	worker := notifications.NewWorker(notifications.WorkerConfig{
		BatchSize:         10,
		PollInterval:      50 * time.Millisecond,
		MaxAttempts:       2,
		InitialBackoff:    50 * time.Millisecond,
		MaxBackoff:        200 * time.Millisecond,
		BackoffMultiplier: 2.0,
		NumWorkers:        1,
	}, repo, sender)

	item := &notifications.QueueItem{
		RecipientID: userID,
		Email:       "unreachable@example.com",
		Subject:     "never arrives",
		Body:        "x",
		MaxAttempts: 2,
	}
	require.NoError(t, repo.Enqueue(ctx, item))

	worker.Start(ctx)
	defer worker.Stop()

	var lastErr *string
	require.Eventually(t, func() bool {
		var status string
		err := testDB.QueryRow(ctx,
			`SELECT status, last_error FROM notification_queue WHERE id = $1`, item.ID).
			Scan(&status, &lastErr)
		return err == nil && status == "failed"
	}, 10*time.Second, 100*time.Millisecond)

	require.NotNil(t, lastErr)
	assert.NotEmpty(t, *lastErr)
}
