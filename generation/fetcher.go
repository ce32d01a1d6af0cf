package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Nexora-Open-Source/smartedu/api"
	"github.com/Nexora-Open-Source/smartedu/schema"
	"github.com/sirupsen/logrus"
)

// OutcomeKind classifies one fetch
type OutcomeKind int

const (
	OutcomeNotReady OutcomeKind = iota
	OutcomeReady
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeReady:
		return "ready"
	case OutcomeFailed:
		return "failed"
	}
	return "not_ready"
}

// Outcome is the classified result of fetching a generated entity
type Outcome struct {
	Kind    OutcomeKind
	Data    json.RawMessage
	Message string
}

// ReadyOutcome carries the fetched entity data
func ReadyOutcome(data json.RawMessage) Outcome {
	return Outcome{Kind: OutcomeReady, Data: data}
}

// NotReadyOutcome means the job has not produced the entity yet
func NotReadyOutcome() Outcome {
	return Outcome{Kind: OutcomeNotReady}
}

// FailedOutcome carries a message for the user
func FailedOutcome(message string) Outcome {
	return Outcome{Kind: OutcomeFailed, Message: message}
}

// Fetcher fetches a generated entity once. Implementations never return
// "not ready" as an error.
type Fetcher interface {
	Fetch(ctx context.Context, id string) Outcome
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, id string) Outcome

// Fetch calls f(ctx, id)
func (f FetcherFunc) Fetch(ctx context.Context, id string) Outcome {
	return f(ctx, id)
}

// Doer performs one backend request, see api.Client.Do
type Doer interface {
	Do(ctx context.Context, method, route, path string, body []byte) ([]byte, error)
}

// EntityFetcher fetches a generated entity over the backend REST API
type EntityFetcher struct {
	doer   Doer
	kind   Kind
	logger *logrus.Logger
}

// NewEntityFetcher creates a fetcher for the given kind
func NewEntityFetcher(doer Doer, kind Kind, logger *logrus.Logger) *EntityFetcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &EntityFetcher{doer: doer, kind: kind, logger: logger}
}

// Fetch requests the entity and classifies the response: 404 and empty data
// are NotReady, any other error is Failed.
func (f *EntityFetcher) Fetch(ctx context.Context, id string) Outcome {
	if strings.TrimSpace(id) == "" {
		return FailedOutcome(ErrMissingID.Error())
	}

	body, err := f.doer.Do(ctx, http.MethodGet, f.kind.ItemRoute(), api.ItemPath(f.kind.ItemRoute(), id), nil)
	if err != nil {
		if api.IsNotFound(err) {
			return NotReadyOutcome()
		}
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			return FailedOutcome(apiErr.Message)
		}
		return FailedOutcome(err.Error())
	}

	data, err := schema.DataOf(body)
	if errors.Is(err, schema.ErrEmptyData) {
		return NotReadyOutcome()
	}
	if err != nil {
		f.logger.WithFields(logrus.Fields{
			"kind":  f.kind,
			"id":    id,
			"error": err.Error(),
		}).Warn("Malformed generation response")
		return FailedOutcome(fmt.Sprintf("malformed %s response", f.kind))
	}

	if err := f.kind.validate(data); err != nil {
		if errors.Is(err, schema.ErrEmptyData) {
			return NotReadyOutcome()
		}
		f.logger.WithFields(logrus.Fields{
			"kind":  f.kind,
			"id":    id,
			"error": err.Error(),
		}).Warn("Generated entity failed validation")
		return FailedOutcome(err.Error())
	}
	return ReadyOutcome(data)
}
