package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Nexora-Open-Source/smartedu/generation"
	"github.com/Nexora-Open-Source/smartedu/middleware"
	"github.com/Nexora-Open-Source/smartedu/outline"
	"github.com/Nexora-Open-Source/smartedu/schema"
	"github.com/Nexora-Open-Source/smartedu/types"
	"github.com/Nexora-Open-Source/smartedu/view"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

var (
	errNoOutline    = errors.New("module has no generated outline")
	errEmptyOutline = errors.New("edits would leave the outline without topics")
)

/*
HandleGetOutline returns a module's outline with topic numbering.

Example:

	GET /modules/12/outline

Response:
  - 200 OK: The numbered outline.
  - 404 Not Found: The module does not exist or has not been generated.
*/
// @Summary Get a module outline
// @Tags Outline
// @Produce json
// @Param id path string true "Module id"
// @Success 200 {object} view.OutlineContent "Numbered outline"
// @Failure 404 {object} middleware.APIError "No generated outline"
// @Failure 502 {object} middleware.APIError "Backend error"
// @Router /modules/{id}/outline [get]
func (h *Handler) HandleGetOutline(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestID(r)
	id := mux.Vars(r)["id"]

	module, err := h.Modules.GetModule(r.Context(), id)
	if err != nil {
		if errors.Is(err, schema.ErrEmptyData) {
			middleware.RespondNotFound(w, errNoOutline, requestID)
			return
		}
		respondUpstreamError(w, err, requestID)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, view.NewOutlineContent(module))
}

/*
HandlePatchOutline applies path-addressed edits to a module outline and saves
it. Edits are all-or-nothing: if one op is invalid, or the edits would
remove every topic, nothing is saved. A successful save stops the outline
watcher of the module so its status is checked again.

Example:

	PATCH /modules/12/outline
	{"ops": [{"op": "set_title", "path": "2.1", "title": "Statistik Dasar"},
	         {"op": "move", "path": "3", "delta": -1}]}

Response:
  - 200 OK: The saved outline.
  - 400 Bad Request: Malformed body or invalid op.
  - 404 Not Found: The module has no outline to edit.
*/
// @Summary Edit a module outline
// @Tags Outline
// @Accept json
// @Produce json
// @Param id path string true "Module id"
// @Param request body types.OutlineEditRequest true "Path-addressed edits"
// @Success 200 {object} view.OutlineContent "Saved outline"
// @Failure 400 {object} middleware.APIError "Malformed body or invalid op"
// @Failure 404 {object} middleware.APIError "No generated outline"
// @Failure 502 {object} middleware.APIError "Backend error"
// @Router /modules/{id}/outline [patch]
func (h *Handler) HandlePatchOutline(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestID(r)
	id := mux.Vars(r)["id"]

	var req types.OutlineEditRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		middleware.RespondBadRequest(w, fmt.Errorf("invalid request body: %w", err), requestID)
		return
	}
	if len(req.Ops) == 0 {
		middleware.RespondValidationError(w, fmt.Errorf("ops must not be empty"), requestID)
		return
	}

	module, err := h.Modules.GetModule(r.Context(), id)
	if err != nil {
		if errors.Is(err, schema.ErrEmptyData) {
			middleware.RespondNotFound(w, errNoOutline, requestID)
			return
		}
		respondUpstreamError(w, err, requestID)
		return
	}

	edited, err := outline.Apply(module.Outline, req.Ops)
	if err != nil {
		middleware.RespondValidationError(w, err, requestID)
		return
	}
	if edited.Len() == 0 {
		middleware.RespondValidationError(w, errEmptyOutline, requestID)
		return
	}
	module.Outline = edited

	if err := h.Modules.UpdateModule(r.Context(), *module); err != nil {
		respondUpstreamError(w, err, requestID)
		return
	}
	h.Registry.Stop(generation.KindOutline, id)

	h.Logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"module_id":  id,
		"ops":        len(req.Ops),
		"topics":     edited.Count(),
	}).Info("Outline saved")

	middleware.RespondJSON(w, http.StatusOK, view.NewOutlineContent(module))
}
