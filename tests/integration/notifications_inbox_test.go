//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/testutil"
)

type inboxItem struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	Priority string `json:"priority"`
	Read     bool   `json:"read"`
}

func listInbox(t *testing.T, client *testutil.Client, query string) []inboxItem {
	t.Helper()

	resp, err := client.GET("/api/v1/notifications" + query)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data []inboxItem `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

func unreadCount(t *testing.T, client *testutil.Client) int {
	t.Helper()

	resp, err := client.GET("/api/v1/notifications/unread-count")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data struct {
			Unread int `json:"unread"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data.Unread
}

func TestInbox_AssignmentNotification(t *testing.T) {
	admin := loginAdmin(t)
	reporter, _ := createUser(t, "REPORTER", "reporter-pass-1")
	responder, responderID := createUser(t, "RESPONDER", "responder-pass-1")

	inc := createIncident(t, reporter, "CRITICAL")
	resp := assign(t, admin, inc.ID, responderID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	items := listInbox(t, responder, "")
	require.Len(t, items, 1)
	assert.Equal(t, "assigned", items[0].Kind)
	assert.Equal(t, "HIGH", items[0].Priority, "critical assignment is high priority")
	assert.Contains(t, items[0].Title, inc.Number)
	assert.False(t, items[0].Read)
}

func TestInbox_ResolvedNotifiesReporter(t *testing.T) {
	admin := loginAdmin(t)
	reporter, _ := createUser(t, "REPORTER", "reporter-pass-1")
	responder, responderID := createUser(t, "RESPONDER", "responder-pass-1")

	inc := createIncident(t, reporter, "MEDIUM")
	resp := assign(t, admin, inc.ID, responderID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
	for _, status := range []string{"INVESTIGATING", "RESOLVED"} {
		resp = setStatus(t, responder, inc.ID, status)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}

	kinds := map[string]int{}
	for _, n := range listInbox(t, reporter, "") {
		kinds[n.Kind]++
	}
	assert.Equal(t, 1, kinds["status-changed"])
	assert.Equal(t, 1, kinds["resolved"])
}

func TestInbox_ReadFlow(t *testing.T) {
	admin := loginAdmin(t)
	reporter, _ := createUser(t, "REPORTER", "reporter-pass-1")
	responder, responderID := createUser(t, "RESPONDER", "responder-pass-1")

	inc := createIncident(t, reporter, "LOW")
	resp := assign(t, admin, inc.ID, responderID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
	resp = setStatus(t, responder, inc.ID, "INVESTIGATING")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	require.Equal(t, 1, unreadCount(t, reporter))

	items := listInbox(t, reporter, "?unread=true")
	require.Len(t, items, 1)

	resp, err := reporter.POST("/api/v1/notifications/"+items[0].ID+"/read", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	assert.Equal(t, 0, unreadCount(t, reporter))
	assert.Empty(t, listInbox(t, reporter, "?unread=true"))
}

func TestInbox_MarkAllRead(t *testing.T) {
	reporter, _ := createUser(t, "REPORTER", "reporter-pass-1")
	responder2, responderID := createUser(t, "RESPONDER", "responder-pass-1")
	admin := loginAdmin(t)

	for range 3 {
		inc := createIncident(t, reporter, "LOW")
		resp := assign(t, admin, inc.ID, responderID)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}

	require.Equal(t, 3, unreadCount(t, responder2))

	resp, err := responder2.POST("/api/v1/notifications/read-all", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	assert.Equal(t, 0, unreadCount(t, responder2))
}

func TestInbox_CannotReadOthers(t *testing.T) {
	admin := loginAdmin(t)
	reporter, _ := createUser(t, "REPORTER", "reporter-pass-1")
	responder, responderID := createUser(t, "RESPONDER", "responder-pass-1")
	stranger, _ := createUser(t, "REPORTER", "stranger-pass-1")

	inc := createIncident(t, reporter, "LOW")
	resp := assign(t, admin, inc.ID, responderID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	items := listInbox(t, responder, "")
	require.NotEmpty(t, items)

	resp, err := stranger.WithoutValidation().POST("/api/v1/notifications/"+items[0].ID+"/read", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}
