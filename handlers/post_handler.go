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

type PostHandler struct {
	postService *services.PostService
}

func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.List(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"posts": posts})
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, comments, likes, err := h.postService.Get(r.Context(), mux.Vars(r)["postId"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"post": post, "comments": comments, "likes": likes})
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.FromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	var input struct {
		Content string `json:"content"`
		PostImg string `json:"post_img"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	post, err := h.postService.Create(r.Context(), actor, input.Content, input.PostImg)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"post": post})
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.FromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	var input struct {
		Content string `json:"content"`
		PostImg string `json:"post_img"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	post, err := h.postService.Update(r.Context(), mux.Vars(r)["postId"], actor, input.Content, input.PostImg)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"updated_post": post})
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.FromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	post, err := h.postService.Delete(r.Context(), mux.Vars(r)["postId"], actor)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted_post": post})
}
