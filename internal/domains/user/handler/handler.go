package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopora-backend/internal/domains/user/model"
	"shopora-backend/internal/domains/user/service"
	"shopora-backend/internal/shared/middleware"
	"shopora-backend/internal/shared/response"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterRoutes mounts public auth endpoints and the protected profile
// endpoint.
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}

	users := rg.Group("/users")
	users.Use(authMW)
	{
		users.GET("/me", h.GetProfile)
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Registration successful", result)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Login successful", result)
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	user, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Profile retrieved", user)
}

func (h *UserHandler) handleServiceError(c *gin.Context, err error) {
	switch err {
	case model.ErrEmailAlreadyTaken:
		response.Error(c, http.StatusConflict, "EMAIL_TAKEN", err.Error())
	case model.ErrInvalidCredentials:
		response.Unauthorized(c, err.Error())
	case model.ErrUserNotFound:
		response.NotFound(c, err.Error())
	default:
		response.InternalError(c, "something went wrong")
	}
}
