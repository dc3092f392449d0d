package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/localmart/localmart-backend/internal/auth"
	"github.com/localmart/localmart-backend/internal/middleware"
	"github.com/localmart/localmart-backend/internal/model"
	"github.com/localmart/localmart-backend/internal/service"
)

// MessageDeliverer persists a message and fans it out to live connections.
// The relay implements it; REST appends go through it so joined sockets see
// HTTP-posted messages without a refetch.
type MessageDeliverer interface {
	Deliver(ctx context.Context, from auth.Identity, convID uint64, text string) (*model.Message, error)
}

type ConversationHandler struct {
	svc     service.ConversationService
	notifs  service.NotificationService
	deliver MessageDeliverer
}

func NewConversationHandler(svc service.ConversationService, notifs service.NotificationService, deliver MessageDeliverer) *ConversationHandler {
	return &ConversationHandler{svc: svc, notifs: notifs, deliver: deliver}
}

type CreateConversationRequest struct {
	GroupTitle string `json:"groupTitle" validate:"max=255"`
	UserID     uint64 `json:"userId"`
	SellerID   uint64 `json:"sellerId"`
}

type MessageRequest struct {
	Text string `json:"text" validate:"required"`
}

type ConversationSummary struct {
	model.Conversation
	UnreadCount int64 `json:"unreadCount"`
}

// CreateOrGet opens (or returns) the conversation between a user and a
// seller. The caller supplies only the other side; its own id comes from the
// token.
func (h *ConversationHandler) CreateOrGet(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	var req CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}

	userID, sellerID := req.UserID, req.SellerID
	switch ident.Role {
	case model.RoleUser:
		userID = ident.ID
	case model.RoleSeller:
		sellerID = ident.ID
	}
	if userID == 0 || sellerID == 0 {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "both participants are required"))
	}

	cv, err := h.svc.CreateOrGet(c.Request().Context(), req.GroupTitle, userID, sellerID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "user or seller not found"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to open conversation"))
	}
	return c.JSON(http.StatusOK, cv)
}

func (h *ConversationHandler) ListMine(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	var (
		convs []model.Conversation
		err   error
	)
	if ident.Role == model.RoleSeller {
		convs, err = h.svc.ListForSeller(c.Request().Context(), ident.ID)
	} else {
		convs, err = h.svc.ListForUser(c.Request().Context(), ident.ID)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch conversations"))
	}
	out := make([]ConversationSummary, 0, len(convs))
	for _, cv := range convs {
		unread, err := h.svc.UnreadCount(c.Request().Context(), cv.ID, ident.Role, ident.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch conversations"))
		}
		out = append(out, ConversationSummary{Conversation: cv, UnreadCount: unread})
	}
	return c.JSON(http.StatusOK, out)
}

// MarkRead moves the caller's read marker and clears this conversation's
// notifications in the same action.
func (h *ConversationHandler) MarkRead(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	convID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	if err := h.svc.MarkRead(c.Request().Context(), convID, ident.Role, ident.ID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "conversation not found"))
		case errors.Is(err, service.ErrNotParticipant):
			return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not a participant"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to mark read"))
	}
	if h.notifs != nil {
		_ = h.notifs.MarkByConversation(c.Request().Context(), ident.Role, ident.ID, convID)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ConversationHandler) ListMessages(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	convID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	cv, err := h.svc.Get(c.Request().Context(), convID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "conversation not found"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch conversation"))
	}
	if !cv.HasParticipant(ident.Role, ident.ID) {
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not a participant"))
	}
	msgs, err := h.svc.ListMessages(c.Request().Context(), convID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch messages"))
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return c.JSON(http.StatusOK, msgs)
}

// CreateMessage is the REST twin of the relay's send-message event; it goes
// through the same service and so obeys the same validation.
func (h *ConversationHandler) CreateMessage(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	convID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	var msg *model.Message
	if h.deliver != nil {
		msg, err = h.deliver.Deliver(c.Request().Context(), ident, convID, req.Text)
	} else {
		msg, _, err = h.svc.AppendMessage(c.Request().Context(), convID, ident.ID, ident.Role, req.Text)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "conversation not found"))
		case errors.Is(err, service.ErrNotParticipant):
			return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not a participant"))
		case errors.Is(err, service.ErrEmptyMessage):
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "text is required"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to send message"))
	}
	return c.JSON(http.StatusCreated, msg)
}
