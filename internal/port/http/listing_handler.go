package http

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/usecase"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type updateListingResponse struct {
	Listing  entity.Listing `json:"listing"`
	Warnings []string       `json:"warnings,omitempty"`
}

type deleteListingResponse struct {
	usecase.DeleteResult
	Warnings []string `json:"warnings,omitempty"`
}

type addReviewRequest struct {
	UserID      string `json:"userId"`
	Rating      int    `json:"rating"`
	Description string `json:"description"`
}

type enrollRequest struct {
	UserID string `json:"userId"`
}

type setStatusRequest struct {
	Status entity.ListingStatus `json:"status"`
}

func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	var in usecase.ListingInput
	if err := decodeJSON(r, &in); err != nil {
		h.handleError(w, err, "CreateDraft: bad request")
		return
	}
	draft, err := h.Listings.CreateDraft(r.Context(), ownerID, in)
	if err != nil {
		h.handleError(w, err, "CreateDraft failed")
		return
	}
	respondWithJSON(w, http.StatusCreated, draft)
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	var in usecase.ListingInput
	if err := decodeJSON(r, &in); err != nil {
		h.handleError(w, err, "CreateListing: bad request")
		return
	}
	mirror, err := h.Listings.CreateListing(r.Context(), ownerID, in)
	if err != nil {
		h.handleError(w, err, "CreateListing failed")
		return
	}
	respondWithJSON(w, http.StatusCreated, mirror)
}

func (h *Handler) PublishDraft(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	draftID := chi.URLParam(r, "draftID")
	mirror, err := h.Listings.PublishDraft(r.Context(), ownerID, draftID)
	if err != nil {
		h.handleError(w, err, "PublishDraft failed")
		return
	}
	h.logger.Info("Draft published", zap.String("owner_id", ownerID), zap.String("draft_id", draftID), zap.String("global_id", mirror.GlobalID))
	respondWithJSON(w, http.StatusOK, mirror)
}

func (h *Handler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	localID := chi.URLParam(r, "localID")
	var patch entity.ListingPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.handleError(w, err, "UpdateListing: bad request")
		return
	}
	res, err := h.Listings.UpdateListing(r.Context(), ownerID, localID, patch)
	if err != nil {
		h.handleError(w, err, "UpdateListing failed")
		return
	}
	resp := updateListingResponse{Listing: res.Listing}
	for _, warn := range res.Warnings {
		resp.Warnings = append(resp.Warnings, warn.Error())
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	localID := chi.URLParam(r, "localID")
	res, err := h.Listings.DeleteListing(r.Context(), ownerID, localID)
	if err != nil {
		h.handleError(w, err, "DeleteListing failed")
		return
	}
	resp := deleteListingResponse{DeleteResult: res}
	for _, warn := range res.Warnings {
		resp.Warnings = append(resp.Warnings, warn.Error())
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListOwnerPublished(w http.ResponseWriter, r *http.Request) {
	items, err := h.Listings.ListOwnerPublished(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		h.handleError(w, err, "ListOwnerPublished failed")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"listings": items})
}

func (h *Handler) ListOwnerDrafts(w http.ResponseWriter, r *http.Request) {
	items, err := h.Listings.ListOwnerDrafts(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		h.handleError(w, err, "ListOwnerDrafts failed")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"listings": items})
}

func (h *Handler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	items, err := h.Listings.ListCatalog(r.Context())
	if err != nil {
		h.handleError(w, err, "ListCatalog failed")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"listings": items})
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.Listings.GetListing(r.Context(), chi.URLParam(r, "globalID"))
	if err != nil {
		h.handleError(w, err, "GetListing failed")
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	globalID := chi.URLParam(r, "globalID")
	var req addReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, err, "AddReview: bad request")
		return
	}
	review, err := h.Aggregates.AddReview(r.Context(), globalID, req.UserID, req.Rating, req.Description)
	if err != nil {
		h.handleError(w, err, "AddReview failed")
		return
	}
	respondWithJSON(w, http.StatusCreated, review)
}

func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	globalID := chi.URLParam(r, "globalID")
	var req enrollRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, err, "Enroll: bad request")
		return
	}
	listing, err := h.Aggregates.Enroll(r.Context(), globalID, req.UserID)
	if err != nil {
		h.handleError(w, err, "Enroll failed")
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	globalID := chi.URLParam(r, "globalID")
	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, err, "SetStatus: bad request")
		return
	}
	listing, err := h.Listings.SetStatus(r.Context(), globalID, req.Status)
	if err != nil {
		h.handleError(w, err, "SetStatus failed")
		return
	}
	h.logger.Info("Listing status changed", zap.String("global_id", globalID), zap.String("status", string(listing.Status)))
	respondWithJSON(w, http.StatusOK, listing)
}
