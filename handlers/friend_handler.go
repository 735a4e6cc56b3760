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

type FriendHandler struct {
	friendService *services.FriendService
}

func NewFriendHandler(friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.FromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	request, err := h.friendService.Send(r.Context(), actor, mux.Vars(r)["userId"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"friend_request": request})
}

func (h *FriendHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.FromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	request, err := h.friendService.Get(r.Context(), mux.Vars(r)["requestId"], actor)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"friend_request": request})
}

func (h *FriendHandler) RespondToRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.FromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	var input struct {
		IsAccepted bool `json:"is_accepted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	request, err := h.friendService.Respond(r.Context(), mux.Vars(r)["requestId"], actor, input.IsAccepted)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted_request": request})
}

func (h *FriendHandler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.FromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	request, err := h.friendService.Delete(r.Context(), mux.Vars(r)["requestId"], actor)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted_request": request})
}
