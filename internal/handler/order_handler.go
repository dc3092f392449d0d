package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/localmart/localmart-backend/internal/middleware"
	"github.com/localmart/localmart-backend/internal/model"
	"github.com/localmart/localmart-backend/internal/service"
)

type OrderHandler struct {
	svc service.OrderService
}

func NewOrderHandler(svc service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type CreateOrderRequest struct {
	ProductID uint64 `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

func (h *OrderHandler) Create(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok || ident.Role != model.RoleUser {
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "buyer account required"))
	}
	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
	o, err := h.svc.Create(c.Request().Context(), ident.ID, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "product not found"))
		case errors.Is(err, service.ErrOutOfStock):
			return c.JSON(http.StatusConflict, NewErrorResponse("conflict", "not enough stock"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to place order"))
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	var (
		list []model.Order
		err  error
	)
	if ident.Role == model.RoleSeller {
		list, err = h.svc.ListBySeller(c.Request().Context(), ident.ID)
	} else {
		list, err = h.svc.ListByUser(c.Request().Context(), ident.ID)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch orders"))
	}
	if list == nil {
		list = []model.Order{}
	}
	return c.JSON(http.StatusOK, list)
}

// MessageSeller opens (or returns) the conversation tied to an order so the
// buyer can contact the seller from the order detail view.
func (h *OrderHandler) MessageSeller(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok || ident.Role != model.RoleUser {
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "buyer account required"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	cv, err := h.svc.MessageSeller(c.Request().Context(), id, ident.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "order not found"))
		case errors.Is(err, service.ErrForbidden):
			return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not your order"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to open conversation"))
	}
	return c.JSON(http.StatusOK, cv)
}

func (h *OrderHandler) MarkShipped(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok || ident.Role != model.RoleSeller {
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "seller account required"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	if err := h.svc.MarkShipped(c.Request().Context(), id, ident.ID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "order not found or not shippable"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to mark shipped"))
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *OrderHandler) MarkDelivered(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok || ident.Role != model.RoleUser {
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "buyer account required"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	if err := h.svc.MarkDelivered(c.Request().Context(), id, ident.ID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "order not found or not shipped"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to mark delivered"))
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
