/*
Package generation triggers AI generation jobs on the SmartEdu backend and
watches them until the generated entity is available.

The backend has no job status endpoint. A job is observed by polling the
entity it produces: 404 or an empty payload means the job is still running.
*/
package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Nexora-Open-Source/smartedu/api"
	"github.com/Nexora-Open-Source/smartedu/schema"
)

var (
	// ErrMissingID is returned when a job has no target entity id
	ErrMissingID = errors.New("missing id")
	// ErrMissingModel is returned when a trigger names no model
	ErrMissingModel = errors.New("missing model")
	// ErrUnknownKind is returned for an unsupported job kind
	ErrUnknownKind = errors.New("unknown generation kind")
	// ErrAlreadyStarted is returned when Start is called twice on a watcher
	ErrAlreadyStarted = errors.New("watcher already started")
)

// Kind is the type of content a job generates
type Kind string

const (
	KindOutline Kind = "outline"
	KindEbook   Kind = "ebook"
)

// Kinds lists the supported kinds
var Kinds = []Kind{KindOutline, KindEbook}

// ParseKind validates a kind name
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindOutline, KindEbook:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// ListRoute is the collection route generation is triggered on
func (k Kind) ListRoute() string {
	if k == KindEbook {
		return api.RouteEbookList
	}
	return api.RouteModuleList
}

// ItemRoute is the route of the generated entity
func (k Kind) ItemRoute() string {
	if k == KindEbook {
		return api.RouteEbookItem
	}
	return api.RouteModuleItem
}

// validate checks that data is a complete generated entity. An entity that
// exists but has no generated content yields schema.ErrEmptyData.
func (k Kind) validate(data json.RawMessage) error {
	var err error
	switch k {
	case KindOutline:
		_, err = schema.DecodeModule(data)
	case KindEbook:
		_, err = schema.DecodeEbook(data)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
	}
	return err
}

// Job identifies a generation job by the entity it produces
type Job struct {
	Kind  Kind   `json:"kind"`
	ID    string `json:"id"`
	Model string `json:"model,omitempty"`
}

// Key is the job's registry slot, e.g. "outline/12"
func (j Job) Key() string {
	return JobKey(j.Kind, j.ID)
}

// JobKey builds the registry slot key for a kind and entity id
func JobKey(kind Kind, id string) string {
	return string(kind) + "/" + id
}
