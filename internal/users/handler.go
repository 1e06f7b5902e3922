package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docassist-web/internal/shared/server/middleware"
	"docassist-web/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.PATCH("/me", h.updateContact)
}

// me answers guests from the request identity and registered users from
// their stored profile.
func (h *Handler) me(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}
	if middleware.IsGuest(c) || h.Svc == nil {
		respond.JSON(c, http.StatusOK, gin.H{"id": userID, "guest": middleware.IsGuest(c)})
		return
	}
	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"id":         user.ID,
		"guest":      false,
		"email":      user.Email,
		"name":       user.Name,
		"pictureUrl": user.PictureURL,
		"phone":      user.Phone,
		"address":    user.Address,
	})
}

func (h *Handler) updateContact(c *gin.Context) {
	if middleware.IsGuest(c) {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	var req Contact
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid json", nil)
		return
	}
	user, err := h.Svc.UpdateContact(c.Request.Context(), middleware.UserIDFromContext(c), req)
	switch {
	case err == nil:
		respond.JSON(c, http.StatusOK, gin.H{"phone": user.Phone, "address": user.Address})
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "invalid_request", "phone or address too long", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update user", nil)
	}
}
