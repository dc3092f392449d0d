package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/localmart/localmart-backend/internal/middleware"
	"github.com/localmart/localmart-backend/internal/model"
	"github.com/localmart/localmart-backend/internal/service"
)

const maxImageBytes = 5 << 20

type ProductHandler struct {
	svc service.ProductService
}

func NewProductHandler(svc service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

type CreateProductRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents" validate:"gte=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
}

func (h *ProductHandler) Create(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok || ident.Role != model.RoleSeller {
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "seller account required"))
	}
	var req CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
	p, err := h.svc.Create(c.Request().Context(), ident.ID, req.Name, req.Description, req.PriceCents, req.Stock)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	list, err := h.svc.List(c.Request().Context(), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch products"))
	}
	if list == nil {
		list = []model.Product{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid product id"))
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "product not found"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch product"))
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) ListMine(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok || ident.Role != model.RoleSeller {
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "seller account required"))
	}
	list, err := h.svc.ListBySeller(c.Request().Context(), ident.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch products"))
	}
	if list == nil {
		list = []model.Product{}
	}
	return c.JSON(http.StatusOK, list)
}

// UploadImage accepts a raw image body and stores it on the configured
// bucket.
func (h *ProductHandler) UploadImage(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok || ident.Role != model.RoleSeller {
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "seller account required"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid product id"))
	}
	contentType := c.Request().Header.Get("Content-Type")
	if contentType != "image/png" && contentType != "image/jpeg" && contentType != "image/webp" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "unsupported image type"))
	}
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxImageBytes+1))
	if err != nil || len(data) == 0 {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "empty image body"))
	}
	if len(data) > maxImageBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, NewErrorResponse("too_large", "image exceeds 5MB"))
	}
	url, err := h.svc.AttachImage(c.Request().Context(), id, ident.ID, data, contentType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "product not found"))
		case errors.Is(err, service.ErrForbidden):
			return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not your product"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to upload image"))
	}
	return c.JSON(http.StatusOK, map[string]string{"imageUrl": url})
}
