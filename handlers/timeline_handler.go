package handlers

import (
	"encoding/json"
	"net/http"

	"social-server/middleware"
	"social-server/services"
	"social-server/utils/authz"
	"social-server/utils/errors"
	"social-server/utils/query"
)

type TimelineHandler struct {
	timelineService *services.TimelineService
}

func NewTimelineHandler(timelineService *services.TimelineService) *TimelineHandler {
	return &TimelineHandler{timelineService: timelineService}
}

func (h *TimelineHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.FromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	timeline, err := h.timelineService.Get(r.Context(), actor, query.Parse(r))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(timeline)
}
