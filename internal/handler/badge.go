package handler

import (
	"net/http"

	"github.com/bloomgrove/platform/internal/service"
)

// BadgeHandler handles badge endpoints.
type BadgeHandler struct {
	svc *service.BadgeService
}

// NewBadgeHandler creates a new BadgeHandler.
func NewBadgeHandler(svc *service.BadgeService) *BadgeHandler {
	return &BadgeHandler{svc: svc}
}

// Catalog handles GET /badges/catalog.
func (h *BadgeHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	badges, err := h.svc.Catalog(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, badges)
}

// Mine handles GET /badges.
func (h *BadgeHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	badges, err := h.svc.ForUser(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, badges)
}

// New handles GET /badges/new, badges the user has not seen yet.
func (h *BadgeHandler) New(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	badges, err := h.svc.NewForUser(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, badges)
}

// MarkRead handles POST /badges/read.
func (h *BadgeHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	if err := h.svc.MarkSeen(r.Context(), userID); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
