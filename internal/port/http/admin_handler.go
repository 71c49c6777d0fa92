package http

import (
	"errors"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/entity"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var errNotConfigured = errors.New("collaborator not configured")

type handoffRequest struct {
	Value string `json:"value"`
}

func (h *Handler) ReconcileListing(w http.ResponseWriter, r *http.Request) {
	res, err := h.Reconciler.ReconcileListing(r.Context(), chi.URLParam(r, "globalID"))
	if err != nil {
		h.handleError(w, err, "ReconcileListing failed")
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *Handler) ReconcilePost(w http.ResponseWriter, r *http.Request) {
	actions, err := h.Reconciler.ReconcilePost(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		h.handleError(w, err, "ReconcilePost failed")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"actions": actions})
}

func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.Reconciler.Sweep(r.Context())
	if err != nil {
		h.handleError(w, err, "Sweep failed")
		return
	}
	h.logger.Info("Sweep finished via HTTP", zap.Int("repaired", report.Repaired), zap.Int("failures", len(report.Failures)))
	respondWithJSON(w, http.StatusOK, report)
}

func (h *Handler) PutHandoff(w http.ResponseWriter, r *http.Request) {
	if h.Handoff == nil {
		respondWithJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "handoff: " + errNotConfigured.Error()})
		return
	}
	var req handoffRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, err, "PutHandoff: bad request")
		return
	}
	if err := h.Handoff.Put(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "key"), req.Value); err != nil {
		h.handleError(w, err, "PutHandoff failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TakeHandoff returns the value once; the read consumes it.
func (h *Handler) TakeHandoff(w http.ResponseWriter, r *http.Request) {
	if h.Handoff == nil {
		respondWithJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "handoff: " + errNotConfigured.Error()})
		return
	}
	value, err := h.Handoff.Take(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "key"))
	if err != nil {
		h.handleError(w, err, "TakeHandoff failed")
		return
	}
	respondWithJSON(w, http.StatusOK, handoffRequest{Value: value})
}

// UploadImage accepts a multipart form with a single "file" part.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.Images == nil {
		respondWithJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "images: " + errNotConfigured.Error()})
		return
	}
	ownerID := chi.URLParam(r, "ownerID")
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		h.handleError(w, &entity.ValidationError{Fields: []string{"file"}, Reason: err.Error()}, "UploadImage: bad form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.handleError(w, &entity.ValidationError{Fields: []string{"file"}, Reason: err.Error()}, "UploadImage: missing file")
		return
	}
	defer file.Close()

	ref, err := h.Images.Upload(r.Context(), ownerID, header.Filename, file, header.Size)
	if err != nil {
		h.handleError(w, err, "UploadImage failed")
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]string{"imageRef": ref})
}
