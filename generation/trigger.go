package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Nexora-Open-Source/smartedu/monitoring"
	"github.com/Nexora-Open-Source/smartedu/schema"
	"github.com/sirupsen/logrus"
)

// Ack is the backend's acceptance of a generation request
type Ack struct {
	Kind        Kind      `json:"kind"`
	IDs         []string  `json:"ids"`
	Model       string    `json:"model"`
	Message     string    `json:"message,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// Jobs returns one job per requested entity id
func (a *Ack) Jobs() []Job {
	jobs := make([]Job, len(a.IDs))
	for i, id := range a.IDs {
		jobs[i] = Job{Kind: a.Kind, ID: id, Model: a.Model}
	}
	return jobs
}

// Trigger asks the backend to start generation jobs. It does not wait for
// them to complete.
type Trigger struct {
	doer   Doer
	logger *logrus.Logger
}

// NewTrigger creates a trigger over the backend client
func NewTrigger(doer Doer, logger *logrus.Logger) *Trigger {
	if logger == nil {
		logger = logrus.New()
	}
	return &Trigger{doer: doer, logger: logger}
}

// Trigger starts generating kind for every id using the named model. A
// non-2xx response is returned as an error carrying the backend message.
func (t *Trigger) Trigger(ctx context.Context, kind Kind, ids []string, modelID string) (*Ack, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrMissingID
	}
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, ErrMissingID
		}
		cleaned = append(cleaned, id)
	}
	if strings.TrimSpace(modelID) == "" {
		return nil, ErrMissingModel
	}

	body, err := json.Marshal(schema.TriggerRequest{IDs: cleaned, Model: modelID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode trigger request: %w", err)
	}

	resp, err := t.doer.Do(ctx, http.MethodPost, kind.ListRoute(), kind.ListRoute(), body)
	if err != nil {
		monitoring.RecordGenerationTrigger(string(kind), "error")
		t.logger.WithFields(logrus.Fields{
			"kind":  kind,
			"ids":   cleaned,
			"model": modelID,
			"error": err.Error(),
		}).Error("Failed to trigger generation")
		return nil, err
	}
	monitoring.RecordGenerationTrigger(string(kind), "accepted")

	ack := &Ack{
		Kind:        kind,
		IDs:         cleaned,
		Model:       modelID,
		Message:     schema.MessageOf(resp),
		RequestedAt: time.Now(),
	}
	t.logger.WithFields(logrus.Fields{
		"kind":  kind,
		"ids":   cleaned,
		"model": modelID,
	}).Info("Generation triggered")
	return ack, nil
}
