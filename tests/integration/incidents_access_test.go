//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/testutil"
)

func TestGetIncident_NotFound(t *testing.T) {
	admin := loginAdmin(t)

	resp, err := admin.WithoutValidation().GET("/api/v1/incidents/" + uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestReporterSeesOnlyOwnIncidents(t *testing.T) {
	alice, _ := createUser(t, "REPORTER", "alice-pass-1")
	bob, _ := createUser(t, "REPORTER", "bob-pass-1")

	mine := createIncident(t, alice, "LOW")
	theirs := createIncident(t, bob, "LOW")

	resp, err := alice.GET("/api/v1/incidents")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Data []incident `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &list)

	ids := make(map[string]bool, len(list.Data))
	for _, inc := range list.Data {
		ids[inc.ID] = true
	}
	assert.True(t, ids[mine.ID])
	assert.False(t, ids[theirs.ID])

	// direct fetch of a foreign incident is forbidden
	resp, err = alice.WithoutValidation().GET("/api/v1/incidents/" + theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestResponderMustBeAssignee(t *testing.T) {
	admin := loginAdmin(t)
	reporter, _ := createUser(t, "REPORTER", "reporter-pass-1")
	_, assigneeID := createUser(t, "RESPONDER", "assignee-pass-1")
	other, _ := createUser(t, "RESPONDER", "other-pass-1")

	inc := createIncident(t, reporter, "HIGH")
	resp := assign(t, admin, inc.ID, assigneeID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = setStatus(t, other, inc.ID, "INVESTIGATING")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestReporterCannotTransition(t *testing.T) {
	reporter, _ := createUser(t, "REPORTER", "reporter-pass-1")

	inc := createIncident(t, reporter, "LOW")

	resp := setStatus(t, reporter.WithoutValidation(), inc.ID, "INVESTIGATING")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestAssignRejectsNonResponder(t *testing.T) {
	admin := loginAdmin(t)
	reporter, reporterID := createUser(t, "REPORTER", "reporter-pass-1")

	inc := createIncident(t, reporter, "MEDIUM")

	resp := assign(t, admin.WithoutValidation(), inc.ID, reporterID)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestInternalCommentsHiddenFromReporter(t *testing.T) {
	admin := loginAdmin(t)
	reporter, _ := createUser(t, "REPORTER", "reporter-pass-1")

	inc := createIncident(t, reporter, "MEDIUM")

	resp, err := admin.POST("/api/v1/incidents/"+inc.ID+"/comments", map[string]interface{}{
		"body":     "Vendor escalation ticket 4821 opened",
		"internal": true,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = reporter.POST("/api/v1/incidents/"+inc.ID+"/comments", map[string]interface{}{
		"body": "Any update?",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	asReporter := getIncident(t, reporter, inc.ID)
	require.Len(t, asReporter.Comments, 1)
	assert.Equal(t, "Any update?", asReporter.Comments[0].Body)

	asAdmin := getIncident(t, admin, inc.ID)
	assert.Len(t, asAdmin.Comments, 2)
}
