package monitoring

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	sent []*Alert
}

func (n *recordingNotifier) Name() string { return "recording" }

func (n *recordingNotifier) Send(alert *Alert) error {
	n.sent = append(n.sent, alert)
	return nil
}

func newTestAlertManager() (*AlertManager, *recordingNotifier) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	am := NewAlertManager(logger, 0)
	n := &recordingNotifier{}
	am.AddNotifier(n)
	return am, n
}

func TestAlertManagerGenerationTimeouts(t *testing.T) {
	am, n := newTestAlertManager()
	defer am.Stop()

	am.Evaluate(WindowStats{WatchersFinished: 4, WatchersTimedOut: 2})
	require.Len(t, n.sent, 1)
	assert.Equal(t, AlertTypeGenerationTimeouts, n.sent[0].Type)
	assert.Len(t, am.GetActiveAlerts(), 1)

	// An active alert of the same type is not raised twice
	am.Evaluate(WindowStats{WatchersFinished: 3, WatchersTimedOut: 3})
	assert.Len(t, n.sent, 1)

	// Healthy window resolves it
	am.Evaluate(WindowStats{WatchersFinished: 5, WatchersTimedOut: 0})
	assert.Empty(t, am.GetActiveAlerts())
}

func TestAlertManagerBackendErrors(t *testing.T) {
	am, n := newTestAlertManager()
	defer am.Stop()

	am.Evaluate(WindowStats{BackendRequests: 5, BackendErrors: 5})
	assert.Empty(t, n.sent, "too few requests to judge")

	am.Evaluate(WindowStats{BackendRequests: 20, BackendErrors: 5})
	require.Len(t, n.sent, 1)
	assert.Equal(t, AlertTypeBackendErrors, n.sent[0].Type)
	assert.Equal(t, SeverityCritical, n.sent[0].Severity)
}

func TestWindowCounters(t *testing.T) {
	snapshotWindow()

	RecordBackendRequest("GET", "/module/{id}", "200", 0.01)
	RecordBackendRequest("GET", "/module/{id}", "503", 0.01)
	RecordBackendRequest("GET", "/module/{id}", "error", 0.01)
	RecordWatcherFinished("outline", "ready", 1)
	RecordWatcherFinished("outline", "timed_out", 1)

	stats := snapshotWindow()
	assert.Equal(t, int64(3), stats.BackendRequests)
	assert.Equal(t, int64(2), stats.BackendErrors)
	assert.Equal(t, int64(2), stats.WatchersFinished)
	assert.Equal(t, int64(1), stats.WatchersTimedOut)

	assert.Equal(t, WindowStats{}, snapshotWindow())
}

func TestTracingSpans(t *testing.T) {
	tp, err := InitTracing("smartedu-test")
	require.NoError(t, err)
	defer ShutdownTracing(tp)

	ctx, span := CreateSpan(context.Background(), "GET /module/{id}")
	assert.NotNil(t, ctx)
	assert.True(t, span.SpanContext().IsValid())

	assert.NotPanics(t, func() {
		SetSpanAttributes(span, map[string]interface{}{"http.status_code": 404})
		AddSpanEvent(span, "poll", map[string]interface{}{"attempt": 1})
		SetSpanError(span, errors.New("boom"))
		span.End()
	})
}
