package dispatch

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "brokle/internal/core/domain/ingestion"
	"brokle/pkg/ulid"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(log.Writer())
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func TestDispatchTraceUpserts_Disabled_NoRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	d := New(server.URL, "pw", false, testLogger())
	d.DispatchTraceUpserts(context.Background(), ulid.New().String(), []*domain.ProcessedResult{
		{EventType: domain.EventTypeTraceCreate, ID: "trace-1"},
	})

	assert.False(t, called)
}

func TestDispatchTraceUpserts_PostsTraceCreatesOnly(t *testing.T) {
	var receivedUser, receivedPass string
	var body []domain.TraceUpsertNotification

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedUser, receivedPass, _ = r.BasicAuth()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	projectID := ulid.New()
	d := New(server.URL, "secret", true, testLogger())
	d.DispatchTraceUpserts(context.Background(), projectID.String(), []*domain.ProcessedResult{
		{EventType: domain.EventTypeTraceCreate, ID: "trace-1"},
		{EventType: domain.EventTypeScoreCreate, ID: "score-1"},
		{EventType: domain.EventTypeTraceCreate, ID: ""},
	})

	assert.Equal(t, "server", receivedUser)
	assert.Equal(t, "secret", receivedPass)
	require.Len(t, body, 1)
	assert.Equal(t, "trace-1", body[0].TraceID)
	assert.Equal(t, projectID, body[0].ProjectID)
}

func TestDispatchTraceUpserts_NetworkFailureDoesNotPanic(t *testing.T) {
	d := New("http://127.0.0.1:1", "pw", true, testLogger())
	assert.NotPanics(t, func() {
		d.DispatchTraceUpserts(context.Background(), ulid.New().String(), []*domain.ProcessedResult{
			{EventType: domain.EventTypeTraceCreate, ID: "trace-1"},
		})
	})
}
