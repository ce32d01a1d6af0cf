package view

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Nexora-Open-Source/smartedu/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modulePayload = `{
	"id": 12,
	"title": "Analis Data Junior",
	"outline": [
		{"title": "Pengantar", "sub_topics": [{"title": "Tujuan", "description": "apa yang dipelajari"}]},
		{"title": "Statistik"}
	]
}`

func TestRenderStates(t *testing.T) {
	tests := []struct {
		name        string
		status      generation.Status
		wantKind    Kind
		wantMessage string
	}{
		{name: "idle", status: generation.Status{State: generation.Idle}, wantKind: KindIdle, wantMessage: MessageIdle},
		{name: "not generated", status: generation.Status{State: generation.NotReady}, wantKind: KindNotGenerated, wantMessage: MessageNotGenerated},
		{name: "timed out", status: generation.Status{State: generation.TimedOut, Attempt: 144}, wantKind: KindTimedOut, wantMessage: MessageTimedOut},
		{name: "failed", status: generation.Status{State: generation.Failed, Message: "quota exceeded"}, wantKind: KindError, wantMessage: "quota exceeded"},
		{name: "failed without message", status: generation.Status{State: generation.Failed}, wantKind: KindError, wantMessage: MessageFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Render(tt.status, nil)
			assert.Equal(t, tt.wantKind, p.Kind)
			assert.Equal(t, tt.wantMessage, p.Message)
			assert.True(t, p.CanGenerate)
		})
	}
}

func TestRenderTimeoutIsNotAFailure(t *testing.T) {
	timedOut := Render(generation.Status{State: generation.TimedOut}, nil)
	failed := Render(generation.Status{State: generation.Failed, Message: "x"}, nil)
	assert.NotEqual(t, timedOut.Kind, failed.Kind)
	assert.NotEqual(t, timedOut.Message, failed.Message)
}

func TestRenderProgress(t *testing.T) {
	p := Render(generation.Status{
		State:       generation.Polling,
		Attempt:     138,
		Interval:    10 * time.Second,
		MaxAttempts: 144,
	}, nil)

	assert.Equal(t, KindProgress, p.Kind)
	assert.Equal(t, 60, p.RemainingSeconds)
	assert.Equal(t, "Generating content, up to 1 min remaining...", p.Message)
	assert.False(t, p.CanGenerate, "no second trigger while polling")

	unknown := Render(generation.Status{State: generation.Polling}, nil)
	assert.Equal(t, MessageProgress, unknown.Message)
	assert.Zero(t, unknown.RemainingSeconds)
}

func TestRenderCheckHasNoRemainingTime(t *testing.T) {
	st := generation.Status{
		State:       generation.Polling,
		Interval:    10 * time.Second,
		MaxAttempts: 144,
	}

	p := RenderCheck(st, nil)
	assert.Equal(t, KindProgress, p.Kind)
	assert.Equal(t, MessageChecking, p.Message)
	assert.Zero(t, p.RemainingSeconds)
	assert.Zero(t, p.MaxAttempts)

	assert.Equal(t, p, RenderFor(st, nil, false))
	assert.Contains(t, RenderFor(st, nil, true).Message, "remaining")

	notReady := RenderCheck(generation.Status{State: generation.NotReady}, nil)
	assert.Equal(t, KindNotGenerated, notReady.Kind)
}

func TestRenderReadyOutline(t *testing.T) {
	p := Render(generation.Status{State: generation.Ready, Payload: json.RawMessage(modulePayload)}, OutlineTransform)
	require.Equal(t, KindContent, p.Kind)

	content, ok := p.Content.(OutlineContent)
	require.True(t, ok)
	assert.Equal(t, "12", content.ModuleID)
	require.Len(t, content.Topics, 2)
	assert.Equal(t, "1.1", content.Topics[0].Children[0].Number)
	assert.Equal(t, "Tujuan", content.Topics[0].Children[0].Title)
	assert.Equal(t, "2", content.Topics[1].Number)

	assert.Equal(t, "Analis Data Junior\n1 Pengantar\n  1.1 Tujuan\n2 Statistik\n", p.Text())
}

func TestRenderReadyEbook(t *testing.T) {
	payload := json.RawMessage(`{"id":"e1","module_id":12,"title":"Ebook Analis","content":"<h1>Bab 1</h1>"}`)
	p := Render(generation.Status{State: generation.Ready, Payload: payload}, TransformFor(generation.KindEbook))
	require.Equal(t, KindContent, p.Kind)
	assert.Equal(t, EbookContent{ID: "e1", ModuleID: "12", Title: "Ebook Analis", HTML: "<h1>Bab 1</h1>"}, p.Content)
}

func TestRenderReadyWithoutTransform(t *testing.T) {
	payload := json.RawMessage(`{"id":1}`)
	p := Render(generation.Status{State: generation.Ready, Payload: payload}, nil)
	assert.Equal(t, KindContent, p.Kind)
	assert.Equal(t, `{"id":1}`, p.Text())
}

func TestRenderTransformError(t *testing.T) {
	p := Render(generation.Status{State: generation.Ready, Payload: json.RawMessage(`{}`)}, func(json.RawMessage) (interface{}, error) {
		return nil, errors.New("bad shape")
	})
	assert.Equal(t, KindError, p.Kind)
	assert.Contains(t, p.Message, "bad shape")
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "24 min", humanize(1440*time.Second-time.Second))
	assert.Equal(t, "1h05m", humanize(65*time.Minute))
	assert.Equal(t, "9 s", humanize(8500*time.Millisecond))
}
