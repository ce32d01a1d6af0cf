/*
Package view maps a generation watcher status to what a UI should show.

Render is pure: it does no I/O and the same status always yields the same
presentation.
*/
package view

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/Nexora-Open-Source/smartedu/generation"
)

// Kind is the type of presentation to render
type Kind string

const (
	// KindIdle prompts the user to pick an input and start
	KindIdle Kind = "idle"
	// KindProgress shows a progress indicator
	KindProgress Kind = "progress"
	// KindContent shows the generated content in an editable surface
	KindContent Kind = "content"
	// KindNotGenerated offers to start generation
	KindNotGenerated Kind = "not_generated"
	// KindTimedOut reports that generation took too long
	KindTimedOut Kind = "timed_out"
	// KindError reports a failure message
	KindError Kind = "error"
)

// User-facing messages
const (
	MessageIdle         = "Select a materi pokok and a model, then start generation."
	MessageProgress     = "Generating content..."
	MessageChecking     = "Checking whether content has been generated..."
	MessageContent      = "Content is ready."
	MessageNotGenerated = "Content has not been generated yet. Click generate to start."
	MessageTimedOut     = "Generation took too long. Please try again later."
	MessageFailed       = "Generation failed."
)

// Presentation is what to render for a status
type Presentation struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	// Progress details, set for KindProgress
	Attempt          int `json:"attempt,omitempty"`
	MaxAttempts      int `json:"max_attempts,omitempty"`
	RemainingSeconds int `json:"remaining_seconds,omitempty"`
	// Transformed content, set for KindContent
	Content interface{} `json:"content,omitempty"`
	// Whether starting generation again is offered
	CanGenerate bool `json:"can_generate"`
}

// Transform turns a ready payload into renderable content
type Transform func(payload json.RawMessage) (interface{}, error)

// Render maps a status to a presentation. A nil transform renders the raw
// payload.
func Render(st generation.Status, transform Transform) Presentation {
	switch st.State {
	case generation.Idle:
		return Presentation{Kind: KindIdle, Message: MessageIdle, CanGenerate: true}

	case generation.Polling:
		p := Presentation{
			Kind:        KindProgress,
			Message:     MessageProgress,
			Attempt:     st.Attempt,
			MaxAttempts: st.MaxAttempts,
		}
		if remaining, ok := st.Remaining(); ok {
			p.RemainingSeconds = int(math.Ceil(remaining.Seconds()))
			p.Message = fmt.Sprintf("Generating content, up to %s remaining...", humanize(remaining))
		}
		return p

	case generation.Ready:
		if transform == nil {
			return Presentation{Kind: KindContent, Message: MessageContent, Content: st.Payload}
		}
		content, err := transform(st.Payload)
		if err != nil {
			return Presentation{
				Kind:        KindError,
				Message:     fmt.Sprintf("Generated content could not be displayed: %v", err),
				CanGenerate: true,
			}
		}
		return Presentation{Kind: KindContent, Message: MessageContent, Content: content}

	case generation.NotReady:
		return Presentation{Kind: KindNotGenerated, Message: MessageNotGenerated, CanGenerate: true}

	case generation.TimedOut:
		return Presentation{Kind: KindTimedOut, Message: MessageTimedOut, Attempt: st.Attempt, CanGenerate: true}

	case generation.Failed:
		message := st.Message
		if message == "" {
			message = MessageFailed
		}
		return Presentation{Kind: KindError, Message: message, CanGenerate: true}
	}
	return Presentation{Kind: KindError, Message: fmt.Sprintf("unknown status %s", st.State)}
}

// RenderCheck maps the status of a check-only watcher. Such a watcher
// fetches once and schedules nothing, so an unfinished check has no
// remaining time to report.
func RenderCheck(st generation.Status, transform Transform) Presentation {
	if st.State == generation.Polling {
		return Presentation{Kind: KindProgress, Message: MessageChecking}
	}
	return Render(st, transform)
}

// RenderFor renders with Render or RenderCheck depending on whether the
// watcher is tracking a generation run
func RenderFor(st generation.Status, transform Transform, generating bool) Presentation {
	if generating {
		return Render(st, transform)
	}
	return RenderCheck(st, transform)
}

// Text renders a presentation for a terminal
func (p Presentation) Text() string {
	if p.Kind != KindContent || p.Content == nil {
		return p.Message
	}
	switch c := p.Content.(type) {
	case fmt.Stringer:
		return c.String()
	case json.RawMessage:
		return string(c)
	}
	body, err := json.MarshalIndent(p.Content, "", "  ")
	if err != nil {
		return p.Message
	}
	return string(body)
}

func humanize(d time.Duration) string {
	switch {
	case d >= time.Hour:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%d min", int(math.Ceil(d.Minutes())))
	}
	return fmt.Sprintf("%d s", int(math.Ceil(d.Seconds())))
}
