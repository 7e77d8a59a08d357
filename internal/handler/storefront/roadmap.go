package storefront

import (
	"net/http"

	"github.com/dukerupert/academy/internal/handler"
	"github.com/dukerupert/academy/internal/service"
)

// RoadmapHandler drives the signed-in user's learning roadmap.
type RoadmapHandler struct {
	roadmaps service.RoadmapService
}

func NewRoadmapHandler(roadmaps service.RoadmapService) *RoadmapHandler {
	return &RoadmapHandler{roadmaps: roadmaps}
}

// Activate handles POST /bundles/activate/{id}
func (h *RoadmapHandler) Activate(w http.ResponseWriter, r *http.Request) {
	bundleID, err := handler.PathUUID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	roadmap, err := h.roadmaps.Activate(r.Context(), handler.CurrentUser(r).ID, bundleID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusCreated, handler.NewRoadmapResponse(roadmap))
}

// Current handles GET /user-roadmap
func (h *RoadmapHandler) Current(w http.ResponseWriter, r *http.Request) {
	view, err := h.roadmaps.Current(r.Context(), handler.CurrentUser(r).ID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, handler.NewRoadmapViewResponse(view))
}

// Next handles POST /user-roadmap/activate-next-course
func (h *RoadmapHandler) Next(w http.ResponseWriter, r *http.Request) {
	roadmap, err := h.roadmaps.ActivateNextCourse(r.Context(), handler.CurrentUser(r).ID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, handler.NewRoadmapResponse(roadmap))
}

type finishResponse struct {
	Roadmap  handler.RoadmapResponse   `json:"roadmap"`
	GiftCode *handler.DiscountResponse `json:"gift_code,omitempty"`
}

// Finish handles POST /user-roadmap/finish-roadmap
func (h *RoadmapHandler) Finish(w http.ResponseWriter, r *http.Request) {
	result, err := h.roadmaps.FinishRoadmap(r.Context(), handler.CurrentUser(r).ID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	resp := finishResponse{Roadmap: handler.NewRoadmapResponse(result.Roadmap)}
	if result.GiftCode != nil {
		gift := handler.NewDiscountResponse(*result.GiftCode)
		resp.GiftCode = &gift
	}
	handler.OK(w, resp)
}

// Cancel handles DELETE /user-roadmap
func (h *RoadmapHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.roadmaps.Cancel(r.Context(), handler.CurrentUser(r).ID); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.NoContent(w)
}
