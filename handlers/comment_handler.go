package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"social-server/middleware"
	"social-server/services"
	"social-server/utils/authz"
	"social-server/utils/errors"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	comments, err := h.commentService.List(r.Context(), mux.Vars(r)["postId"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"comments": comments})
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.FromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	var input struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	comment, err := h.commentService.Create(r.Context(), actor, mux.Vars(r)["postId"], input.Content)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"comment": comment})
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.FromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	var input struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	vars := mux.Vars(r)
	comment, err := h.commentService.Update(r.Context(), vars["postId"], vars["commentId"], actor, input.Content)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"updated_comment": comment})
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.FromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	vars := mux.Vars(r)
	comment, err := h.commentService.Delete(r.Context(), vars["postId"], vars["commentId"], actor)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted_comment": comment})
}
