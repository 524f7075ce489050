//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/testutil"
)

var emailSeq atomic.Int64

// uniqueEmail returns an address that no other test has used.
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, emailSeq.Add(1))
}

// loginAdmin returns a client authenticated as the seeded admin.
func loginAdmin(t *testing.T) *testutil.Client {
	t.Helper()
	client := newTestClient(t)
	client.LoginAs(t, adminEmail, adminPassword)
	return client
}

// createUser creates an account with the given role through the admin API
// and returns a client logged in as that account plus the account id.
func createUser(t *testing.T, role, password string) (*testutil.Client, string) {
	t.Helper()

	email := uniqueEmail("user")
	admin := loginAdmin(t)
	resp, err := admin.POST("/api/v1/users", map[string]interface{}{
		"name":     "Test " + role,
		"email":    email,
		"password": password,
		"role":     role,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)

	client := newTestClient(t)
	client.LoginAs(t, email, password)
	return client, result.Data.ID
}

// incident is the wire shape tests assert against.
type incident struct {
	ID          string  `json:"id"`
	Number      string  `json:"number"`
	Title       string  `json:"title"`
	Severity    string  `json:"severity"`
	Status      string  `json:"status"`
	ReporterID  string  `json:"reporter_id"`
	ResponderID *string `json:"responder_id"`
	SLADeadline string  `json:"sla_deadline"`
	SLAStatus   string  `json:"sla_status"`
	SLAMet      *bool   `json:"sla_met"`
	ReportedAt  string  `json:"reported_at"`
	ResolvedAt  *string `json:"resolved_at"`
	ClosedAt    *string `json:"closed_at"`
	SLA         *struct {
		Status    string `json:"status"`
		Remaining string `json:"remaining"`
	} `json:"sla"`
	StatusLog []struct {
		OldStatus *string `json:"old_status"`
		NewStatus string  `json:"new_status"`
		Note      string  `json:"note"`
	} `json:"status_log"`
	Comments []struct {
		Body     string `json:"body"`
		Internal bool   `json:"internal"`
	} `json:"comments"`
}

// createIncident reports an incident as the given client and returns it.
func createIncident(t *testing.T, client *testutil.Client, severity string) incident {
	t.Helper()

	resp, err := client.POST("/api/v1/incidents", map[string]interface{}{
		"title":       "Checkout latency spike",
		"description": "p99 above 5s since the last deploy",
		"severity":    severity,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data incident `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

// getIncident fetches an incident by id.
func getIncident(t *testing.T, client *testutil.Client, id string) incident {
	t.Helper()

	resp, err := client.GET("/api/v1/incidents/" + id)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data incident `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

// setStatus transitions an incident and returns the response without
// asserting the status code.
func setStatus(t *testing.T, client *testutil.Client, id, status string) *http.Response {
	t.Helper()

	resp, err := client.PATCH("/api/v1/incidents/"+id+"/status", map[string]string{
		"status": status,
	})
	require.NoError(t, err)
	return resp
}

// assign assigns a responder to an incident as admin.
func assign(t *testing.T, admin *testutil.Client, incidentID, responderID string) *http.Response {
	t.Helper()

	resp, err := admin.POST("/api/v1/incidents/"+incidentID+"/assign", map[string]string{
		"responder_id": responderID,
	})
	require.NoError(t, err)
	return resp
}
