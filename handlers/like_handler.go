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

type LikeHandler struct {
	likeService *services.LikeService
}

func NewLikeHandler(likeService *services.LikeService) *LikeHandler {
	return &LikeHandler{likeService: likeService}
}

func (h *LikeHandler) LikePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.FromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	like, err := h.likeService.LikePost(r.Context(), actor, mux.Vars(r)["postId"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"like": like})
}

func (h *LikeHandler) UnlikePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.FromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	like, err := h.likeService.UnlikePost(r.Context(), actor, mux.Vars(r)["postId"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted_like": like})
}

func (h *LikeHandler) LikeComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.FromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	vars := mux.Vars(r)
	like, err := h.likeService.LikeComment(r.Context(), actor, vars["postId"], vars["commentId"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"like": like})
}

func (h *LikeHandler) UnlikeComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.FromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	vars := mux.Vars(r)
	like, err := h.likeService.UnlikeComment(r.Context(), actor, vars["postId"], vars["commentId"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted_like": like})
}
