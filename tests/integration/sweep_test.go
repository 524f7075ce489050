//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/testutil"
)

// insertLiveIncident writes an incident row directly so the test controls the
// report time and deadline. Returns the incident id.
func insertLiveIncident(t *testing.T, reporterID, responderID string, reportedAt, deadline time.Time) string {
	t.Helper()

	var id string
	err := testDB.QueryRow(context.Background(), `
		INSERT INTO incidents (
			number, title, description, severity, status,
			reporter_id, responder_id, reported_at, sla_deadline, sla_status
		)
		VALUES ($1, $2, 'direct insert for sweep test', 'CRITICAL', 'INVESTIGATING',
		        $3, $4, $5, $6, 'WITHIN_SLA')
		RETURNING id
	`, fmt.Sprintf("INC-9999-%04d", emailSeq.Add(1)), "Sweep target", reporterID, responderID, reportedAt, deadline).Scan(&id)
	require.NoError(t, err)
	return id
}

func incidentSLAStatus(t *testing.T, id string) (slaStatus string, breachedAt *time.Time) {
	t.Helper()
	err := testDB.QueryRow(context.Background(),
		`SELECT sla_status, sla_breached_at FROM incidents WHERE id = $1`, id).
		Scan(&slaStatus, &breachedAt)
	require.NoError(t, err)
	return slaStatus, breachedAt
}

func TestSweep_WarningAndBreach(t *testing.T) {
	ctx := context.Background()
	_, reporterID := createUser(t, "REPORTER", "reporter-pass-1")
	responder, responderID := createUser(t, "RESPONDER", "responder-pass-1")

	now := time.Now().UTC()

	// 30m left of a 4h window: inside the final 20%
	warning := insertLiveIncident(t, reporterID, responderID,
		now.Add(-210*time.Minute), now.Add(30*time.Minute))
	// an hour past the deadline
	breached := insertLiveIncident(t, reporterID, responderID,
		now.Add(-5*time.Hour), now.Add(-time.Hour))
	// plenty of slack, must not move
	healthy := insertLiveIncident(t, reporterID, responderID,
		now, now.Add(4*time.Hour))

	result, err := testApp.Monitor().Sweep(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Evaluated, 3)
	assert.GreaterOrEqual(t, result.Warnings, 1)
	assert.GreaterOrEqual(t, result.Breaches, 1)

	status, breachedAt := incidentSLAStatus(t, warning)
	assert.Equal(t, "APPROACHING_BREACH", status)
	assert.Nil(t, breachedAt)

	status, breachedAt = incidentSLAStatus(t, breached)
	assert.Equal(t, "BREACHED", status)
	require.NotNil(t, breachedAt)
	firstBreach := *breachedAt

	status, breachedAt = incidentSLAStatus(t, healthy)
	assert.Equal(t, "WITHIN_SLA", status)
	assert.Nil(t, breachedAt)

	// re-sweep is idempotent: the breach timestamp never moves
	_, err = testApp.Monitor().Sweep(ctx)
	require.NoError(t, err)
	_, breachedAt = incidentSLAStatus(t, breached)
	require.NotNil(t, breachedAt)
	assert.True(t, breachedAt.Equal(firstBreach))

	// assigned responder was alerted in-app for both transitions
	resp, err := responder.GET("/api/v1/notifications")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var inbox struct {
		Data []struct {
			Kind       string  `json:"kind"`
			IncidentID *string `json:"incident_id"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &inbox)

	kinds := map[string]int{}
	for _, n := range inbox.Data {
		kinds[n.Kind]++
	}
	assert.Equal(t, 1, kinds["sla-warning"])
	assert.Equal(t, 1, kinds["sla-breach"])
}

func TestSweep_ResolvedIncidentsUntouched(t *testing.T) {
	ctx := context.Background()
	_, reporterID := createUser(t, "REPORTER", "reporter-pass-1")

	// resolved after its deadline, classification frozen at resolution
	var id string
	err := testDB.QueryRow(ctx, `
		INSERT INTO incidents (
			number, title, description, severity, status,
			reporter_id, reported_at, resolved_at, sla_deadline, sla_status, sla_met
		)
		VALUES ($1, 'Resolved late', '', 'HIGH', 'RESOLVED',
		        $2, now() - interval '10 hours', now() - interval '1 hour',
		        now() - interval '2 hours', 'WITHIN_SLA', false)
		RETURNING id
	`, fmt.Sprintf("INC-9998-%04d", emailSeq.Add(1)), reporterID).Scan(&id)
	require.NoError(t, err)

	_, err = testApp.Monitor().Sweep(ctx)
	require.NoError(t, err)

	status, _ := incidentSLAStatus(t, id)
	assert.Equal(t, "WITHIN_SLA", status, "resolved incidents are outside the sweep")
}
