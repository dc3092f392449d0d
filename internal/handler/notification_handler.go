package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/localmart/localmart-backend/internal/middleware"
	"github.com/localmart/localmart-backend/internal/model"
	"github.com/localmart/localmart-backend/internal/service"
)

type NotificationHandler struct {
	svc service.NotificationService
}

func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) List(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	unreadOnly := c.QueryParam("unread") == "true"
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	list, unread, err := h.svc.List(c.Request().Context(), ident.Role, ident.ID, unreadOnly, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch notifications"))
	}
	if list == nil {
		list = []model.Notification{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": list,
		"unreadCount":   unread,
	})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	if err := h.svc.MarkAllRead(c.Request().Context(), ident.Role, ident.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to mark read"))
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
