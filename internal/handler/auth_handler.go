package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/localmart/localmart-backend/internal/model"
	"github.com/localmart/localmart-backend/internal/service"
)

type AuthHandler struct {
	svc service.AuthService
}

func NewAuthHandler(svc service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type RegisterUserRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type RegisterSellerRequest struct {
	ShopName string `json:"shopName" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Role     string `json:"role" validate:"required,oneof=user seller"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	ID    uint64 `json:"id"`
}

func (h *AuthHandler) RegisterUser(c echo.Context) error {
	var req RegisterUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
	u, err := h.svc.RegisterUser(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return c.JSON(http.StatusConflict, NewErrorResponse("conflict", "email already registered"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to register"))
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *AuthHandler) RegisterSeller(c echo.Context) error {
	var req RegisterSellerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
	s, err := h.svc.RegisterSeller(c.Request().Context(), req.ShopName, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return c.JSON(http.StatusConflict, NewErrorResponse("conflict", "email already registered"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to register"))
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
	ident, token, err := h.svc.Login(c.Request().Context(), model.ParticipantRole(req.Role), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "invalid email or password"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to log in"))
	}
	return c.JSON(http.StatusOK, LoginResponse{Token: token, Role: string(ident.Role), ID: ident.ID})
}
