package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Nexora-Open-Source/smartedu/generation"
	"github.com/Nexora-Open-Source/smartedu/middleware"
	"github.com/Nexora-Open-Source/smartedu/schema"
	"github.com/Nexora-Open-Source/smartedu/types"
	"github.com/Nexora-Open-Source/smartedu/view"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

var (
	errNoEbook    = errors.New("module has no generated ebook")
	errEmptyEbook = errors.New("html must not be empty")
)

/*
HandleGetEbook returns the ebook generated for a module.

Example:

	GET /ebooks/12

Response:
  - 200 OK: The ebook content.
  - 404 Not Found: The module has no generated ebook.
*/
// @Summary Get a module ebook
// @Tags Ebook
// @Produce json
// @Param id path string true "Module id"
// @Success 200 {object} view.EbookContent "Ebook content"
// @Failure 404 {object} middleware.APIError "No generated ebook"
// @Failure 502 {object} middleware.APIError "Backend error"
// @Router /ebooks/{id} [get]
func (h *Handler) HandleGetEbook(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestID(r)

	ebook, err := h.Ebooks.GetEbook(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, schema.ErrEmptyData) {
			middleware.RespondNotFound(w, errNoEbook, requestID)
			return
		}
		respondUpstreamError(w, err, requestID)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, view.NewEbookContent(ebook))
}

/*
HandleSaveEbook replaces the content of a module's ebook. A successful save
stops the ebook watcher of the module so its status is checked again.

Example:

	PUT /ebooks/12
	{"title": "Analis Data", "html": "<h1>Pengantar</h1>..."}

Response:
  - 200 OK: The saved ebook.
  - 400 Bad Request: Malformed body or empty content.
  - 404 Not Found: The module has no generated ebook.
*/
// @Summary Save a module ebook
// @Tags Ebook
// @Accept json
// @Produce json
// @Param id path string true "Module id"
// @Param request body types.EbookSaveRequest true "Edited content"
// @Success 200 {object} view.EbookContent "Saved ebook"
// @Failure 400 {object} middleware.APIError "Malformed body or empty content"
// @Failure 404 {object} middleware.APIError "No generated ebook"
// @Failure 502 {object} middleware.APIError "Backend error"
// @Router /ebooks/{id} [put]
func (h *Handler) HandleSaveEbook(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestID(r)
	id := mux.Vars(r)["id"]

	var req types.EbookSaveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		middleware.RespondBadRequest(w, fmt.Errorf("invalid request body: %w", err), requestID)
		return
	}
	if strings.TrimSpace(req.HTML) == "" {
		middleware.RespondValidationError(w, errEmptyEbook, requestID)
		return
	}

	ebook, err := h.Ebooks.GetEbook(r.Context(), id)
	if err != nil {
		if errors.Is(err, schema.ErrEmptyData) {
			middleware.RespondNotFound(w, errNoEbook, requestID)
			return
		}
		respondUpstreamError(w, err, requestID)
		return
	}

	ebook.ContentHTML = req.HTML
	if req.Title != "" {
		ebook.Title = req.Title
	}
	if ebook.ModuleID == "" {
		ebook.ModuleID = id
	}

	if err := h.Ebooks.UpdateEbook(r.Context(), *ebook); err != nil {
		respondUpstreamError(w, err, requestID)
		return
	}
	h.Registry.Stop(generation.KindEbook, id)

	h.Logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"module_id":  id,
		"bytes":      len(req.HTML),
	}).Info("Ebook saved")

	middleware.RespondJSON(w, http.StatusOK, view.NewEbookContent(ebook))
}
