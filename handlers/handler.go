/*
Package handlers provides the HTTP handlers of the local SmartEdu server.

The Handler struct receives its collaborators as interfaces so tests can
substitute mocks for the backend client and the generation registry.
*/
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Nexora-Open-Source/smartedu/api"
	"github.com/Nexora-Open-Source/smartedu/generation"
	"github.com/Nexora-Open-Source/smartedu/middleware"
	"github.com/Nexora-Open-Source/smartedu/schema"
	"github.com/sirupsen/logrus"
)

// defaultCheckWait bounds how long a status request waits for a one-shot check
const defaultCheckWait = 5 * time.Second

// GenerationTriggerInterface starts generation jobs on the backend
type GenerationTriggerInterface interface {
	Trigger(ctx context.Context, kind generation.Kind, ids []string, modelID string) (*generation.Ack, error)
}

// WatcherRegistryInterface owns the watchers of generation jobs
type WatcherRegistryInterface interface {
	Watch(job generation.Job, generating bool, onChange func(generation.Status)) (*generation.Watcher, error)
	Get(kind generation.Kind, id string) (*generation.Watcher, bool)
	Stop(kind generation.Kind, id string) bool
	List() []generation.Snapshot
	Active() int
}

// ModuleStoreInterface reads and saves modules
type ModuleStoreInterface interface {
	GetModule(ctx context.Context, id string) (*schema.Module, error)
	UpdateModule(ctx context.Context, m schema.Module) error
}

// EbookStoreInterface reads and saves ebooks, addressed by module id
type EbookStoreInterface interface {
	GetEbook(ctx context.Context, moduleID string) (*schema.Ebook, error)
	UpdateEbook(ctx context.Context, e schema.Ebook) error
}

// Handler contains all service dependencies for HTTP handlers
type Handler struct {
	Trigger  GenerationTriggerInterface
	Registry WatcherRegistryInterface
	Modules  ModuleStoreInterface
	Ebooks   EbookStoreInterface
	Logger   *logrus.Logger
	// How long GET /jobs waits for a one-shot check to finish
	CheckWait time.Duration
}

// NewHandler creates a new handler instance with injected dependencies
func NewHandler(trigger GenerationTriggerInterface, registry WatcherRegistryInterface, modules ModuleStoreInterface, ebooks EbookStoreInterface, logger *logrus.Logger) *Handler {
	return &Handler{
		Trigger:   trigger,
		Registry:  registry,
		Modules:   modules,
		Ebooks:    ebooks,
		Logger:    logger,
		CheckWait: defaultCheckWait,
	}
}

// respondUpstreamError maps a backend client error to a response
func respondUpstreamError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case api.IsUnauthorized(err):
		middleware.RespondUnauthorized(w, err, requestID)
	case api.IsNotFound(err):
		middleware.RespondNotFound(w, err, requestID)
	case errors.Is(err, context.DeadlineExceeded), api.StatusOf(err) == 0:
		middleware.RespondServiceUnavailable(w, err, requestID)
	default:
		middleware.RespondBackendError(w, err, requestID)
	}
}
