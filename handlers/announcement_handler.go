package handlers

import (
	"net/http"

	"github.com/nexora-club/membership-backend/middleware"
	"github.com/nexora-club/membership-backend/services"
)

type AnnouncementHandler struct {
	announcementService services.AnnouncementService
}

func NewAnnouncementHandler(announcementService services.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcementService: announcementService}
}

func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	announcements, err := h.announcementService.ListAnnouncements(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, announcements, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "missing token")
		return
	}

	var input services.CreateAnnouncementInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	announcement, err := h.announcementService.CreateAnnouncement(r.Context(), claims.UserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, announcement, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "missing token")
		return
	}

	announcementID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.announcementService.DeleteAnnouncement(r.Context(), claims, announcementID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"success": true, "message": "Announcement deleted"}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
