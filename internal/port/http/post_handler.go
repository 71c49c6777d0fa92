package http

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/usecase"
	"github.com/go-chi/chi/v5"
)

type addCommentRequest struct {
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	var in usecase.PostInput
	if err := decodeJSON(r, &in); err != nil {
		h.handleError(w, err, "CreatePost: bad request")
		return
	}
	post, err := h.Posts.CreatePost(r.Context(), ownerID, in)
	if err != nil {
		h.handleError(w, err, "CreatePost failed")
		return
	}
	respondWithJSON(w, http.StatusCreated, post)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.Posts.DeletePost(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "localID")); err != nil {
		h.handleError(w, err, "DeletePost failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.Posts.GetPost(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		h.handleError(w, err, "GetPost failed")
		return
	}
	respondWithJSON(w, http.StatusOK, post)
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.Posts.ListComments(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		h.handleError(w, err, "ListComments failed")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"comments": comments})
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	var req addCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, err, "AddComment: bad request")
		return
	}
	comment, err := h.Posts.AddComment(r.Context(), postID, req.UserID, req.Text)
	if err != nil {
		h.handleError(w, err, "AddComment failed")
		return
	}
	respondWithJSON(w, http.StatusCreated, comment)
}

func (h *Handler) LikePost(w http.ResponseWriter, r *http.Request) {
	count, err := h.Posts.LikePost(r.Context(), chi.URLParam(r, "postID"), chi.URLParam(r, "userID"))
	if err != nil {
		h.handleError(w, err, "LikePost failed")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"likeCount": count})
}

func (h *Handler) UnlikePost(w http.ResponseWriter, r *http.Request) {
	count, err := h.Posts.UnlikePost(r.Context(), chi.URLParam(r, "postID"), chi.URLParam(r, "userID"))
	if err != nil {
		h.handleError(w, err, "UnlikePost failed")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"likeCount": count})
}
