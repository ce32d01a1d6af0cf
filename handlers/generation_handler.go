package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Nexora-Open-Source/smartedu/generation"
	"github.com/Nexora-Open-Source/smartedu/middleware"
	"github.com/Nexora-Open-Source/smartedu/types"
	"github.com/Nexora-Open-Source/smartedu/view"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxRequestBody = 1 << 20 // 1MB

/*
HandleGenerate triggers generation and starts watching every requested entity.

Path Parameters:
  - kind: outline or ebook.

Example:

	POST /generate/outline
	{"ids": ["3"], "model": "outline-v2"}

Response:
  - 202 Accepted: Jobs are being watched; poll their status_url.
  - 400 Bad Request: Unknown kind, missing ids or model.
  - 401 Unauthorized: The session token was rejected.
  - 502 Bad Gateway: The backend refused to start generation.
*/
// @Summary Trigger generation
// @Description Starts outline or ebook generation on the backend and watches every requested entity until content appears.
// @Tags Generation
// @Accept json
// @Produce json
// @Param kind path string true "Job kind (outline or ebook)"
// @Param request body types.GenerateRequest true "Entities and model"
// @Success 202 {object} types.GenerateResponse "Jobs are being watched"
// @Failure 400 {object} middleware.APIError "Bad request"
// @Failure 401 {object} middleware.APIError "Session rejected"
// @Failure 502 {object} middleware.APIError "Backend error"
// @Router /generate/{kind} [post]
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestID(r)

	kind, err := generation.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		middleware.RespondBadRequest(w, err, requestID)
		return
	}

	var req types.GenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		middleware.RespondBadRequest(w, fmt.Errorf("invalid request body: %w", err), requestID)
		return
	}

	h.Logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"kind":       kind,
		"ids":        req.IDs,
		"model":      req.Model,
		"action":     "generate",
	}).Info("Processing generation request")

	ack, err := h.Trigger.Trigger(r.Context(), kind, req.IDs, req.Model)
	if err != nil {
		if errors.Is(err, generation.ErrMissingID) || errors.Is(err, generation.ErrMissingModel) {
			middleware.RespondValidationError(w, err, requestID)
			return
		}
		respondUpstreamError(w, err, requestID)
		return
	}

	resp := types.GenerateResponse{
		Message:     ack.Message,
		Model:       ack.Model,
		Jobs:        make([]types.JobRef, 0, len(ack.IDs)),
		RequestedAt: ack.RequestedAt,
	}
	if resp.Message == "" {
		resp.Message = "generation started"
	}
	for _, job := range ack.Jobs() {
		if _, err := h.Registry.Watch(job, true, nil); err != nil {
			middleware.RespondInternalError(w, fmt.Errorf("failed to watch %s: %w", job.Key(), err), requestID)
			return
		}
		resp.Jobs = append(resp.Jobs, types.JobRef{
			Key:       job.Key(),
			Kind:      string(job.Kind),
			ID:        job.ID,
			StatusURL: "/jobs/" + job.Key(),
		})
	}

	middleware.RespondJSON(w, http.StatusAccepted, resp)
}

/*
HandleGetJob returns the status of a job and what the UI should render.

When nothing is watching the entity, or its watcher already finished, a
one-shot check is started: the response then tells whether the content is
generated now. A finished result is never served twice, so content saved
or regenerated since is picked up.

Example:

	GET /jobs/outline/12

Response:
  - 200 OK: Job status with a view presentation.
  - 400 Bad Request: Unknown kind.
*/
// @Summary Get job status
// @Description Returns the status of a generation job and what the UI should render for it.
// @Tags Generation
// @Produce json
// @Param kind path string true "Job kind (outline or ebook)"
// @Param id path string true "Entity id"
// @Success 200 {object} types.JobStatus "Job status"
// @Failure 400 {object} middleware.APIError "Unknown kind"
// @Router /jobs/{kind}/{id} [get]
func (h *Handler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestID(r)
	vars := mux.Vars(r)

	kind, err := generation.ParseKind(vars["kind"])
	if err != nil {
		middleware.RespondBadRequest(w, err, requestID)
		return
	}
	id := vars["id"]

	watcher, ok := h.Registry.Get(kind, id)
	if !ok || watcher.Finished() {
		watcher, err = h.Registry.Watch(generation.Job{Kind: kind, ID: id}, false, nil)
		if err != nil && !errors.Is(err, generation.ErrMissingID) {
			middleware.RespondInternalError(w, err, requestID)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), h.CheckWait)
		// A timeout here just reports the check as still in progress
		_, _ = watcher.Wait(ctx)
		cancel()
	}

	middleware.RespondJSON(w, http.StatusOK, jobStatus(watcher.Job(), watcher.Status(), watcher.Options().Generating))
}

// HandleStopJob stops watching a job
// @Summary Stop watching a job
// @Tags Generation
// @Param kind path string true "Job kind (outline or ebook)"
// @Param id path string true "Entity id"
// @Success 204 "Watcher stopped"
// @Failure 400 {object} middleware.APIError "Unknown kind"
// @Failure 404 {object} middleware.APIError "No watcher for the job"
// @Router /jobs/{kind}/{id} [delete]
func (h *Handler) HandleStopJob(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestID(r)
	vars := mux.Vars(r)

	kind, err := generation.ParseKind(vars["kind"])
	if err != nil {
		middleware.RespondBadRequest(w, err, requestID)
		return
	}
	if !h.Registry.Stop(kind, vars["id"]) {
		middleware.RespondNotFound(w, fmt.Errorf("no watcher for %s", generation.JobKey(kind, vars["id"])), requestID)
		return
	}

	h.Logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"job":        generation.JobKey(kind, vars["id"]),
	}).Info("Watcher stopped by client")
	w.WriteHeader(http.StatusNoContent)
}

// JobFilter narrows the job list
type JobFilter struct {
	Kind  generation.Kind
	State *generation.State
	Limit int
}

func (f JobFilter) match(s generation.Snapshot) bool {
	if f.Kind != "" && s.Job.Kind != f.Kind {
		return false
	}
	return f.State == nil || s.Status.State == *f.State
}

func parseJobFilter(r *http.Request) (JobFilter, error) {
	q := r.URL.Query()
	filter := JobFilter{Limit: 100}

	if kind := q.Get("kind"); kind != "" {
		parsed, err := generation.ParseKind(kind)
		if err != nil {
			return filter, err
		}
		filter.Kind = parsed
	}
	if state := q.Get("state"); state != "" {
		var parsed generation.State
		if err := parsed.UnmarshalText([]byte(state)); err != nil {
			return filter, fmt.Errorf("invalid state parameter: %w", err)
		}
		filter.State = &parsed
	}
	if limit := q.Get("limit"); limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil || parsed < 1 {
			return filter, fmt.Errorf("invalid limit parameter %q", limit)
		}
		filter.Limit = parsed
	}
	return filter, nil
}

/*
HandleListJobs lists watched jobs ordered by key.

Query Parameters:
  - kind: Only jobs of this kind.
  - state: Only jobs in this state (polling, ready, not_ready, timed_out, failed).
  - limit: Maximum number of jobs to return (default: 100).
*/
// @Summary List watched jobs
// @Tags Generation
// @Produce json
// @Param kind query string false "Only jobs of this kind"
// @Param state query string false "Only jobs in this state"
// @Param limit query int false "Maximum number of jobs to return (default: 100)"
// @Success 200 {object} types.JobList "Watched jobs"
// @Failure 400 {object} middleware.APIError "Invalid filter"
// @Router /jobs [get]
func (h *Handler) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestID(r)

	filter, err := parseJobFilter(r)
	if err != nil {
		middleware.RespondBadRequest(w, err, requestID)
		return
	}

	snapshots := h.Registry.List()
	list := types.JobList{
		Jobs:   make([]types.JobStatus, 0, len(snapshots)),
		Active: h.Registry.Active(),
	}
	for _, s := range snapshots {
		if len(list.Jobs) == filter.Limit {
			break
		}
		if filter.match(s) {
			list.Jobs = append(list.Jobs, jobStatus(s.Job, s.Status, s.Generating))
		}
	}
	middleware.RespondJSON(w, http.StatusOK, list)
}

// jobStatus reports a status. A check-only watcher never schedules another
// fetch, so it is rendered without a time estimate.
func jobStatus(job generation.Job, st generation.Status, generating bool) types.JobStatus {
	out := types.JobStatus{
		Key:         job.Key(),
		Kind:        string(job.Kind),
		ID:          job.ID,
		Model:       job.Model,
		State:       st.State.String(),
		Attempt:     st.Attempt,
		MaxAttempts: st.MaxAttempts,
		View:        view.RenderFor(st, view.TransformFor(job.Kind), generating),
	}
	if !st.StartedAt.IsZero() {
		started := st.StartedAt
		out.StartedAt = &started
		out.ElapsedMs = st.Elapsed(time.Now()).Milliseconds()
	}
	if !st.UpdatedAt.IsZero() {
		updated := st.UpdatedAt
		out.UpdatedAt = &updated
	}
	return out
}
