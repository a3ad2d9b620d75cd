package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cartModel "shopora-backend/internal/domains/cart/model"
	"shopora-backend/internal/domains/cart/service"
	productModel "shopora-backend/internal/domains/product/model"
	"shopora-backend/internal/shared/middleware"
	"shopora-backend/internal/shared/response"
	"shopora-backend/internal/shared/utils"
)

type CartHandler struct {
	service service.CartService
}

func NewCartHandler(service service.CartService) *CartHandler {
	return &CartHandler{service: service}
}

func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	cart := rg.Group("/cart")
	cart.Use(authMW)
	{
		cart.GET("", h.GetCart)
		cart.POST("/items", h.AddItem)
		cart.DELETE("/items/:productId", h.RemoveItem)
	}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	cart, err := h.service.GetCart(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Cart retrieved", cart)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	var req cartModel.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	cart, err := h.service.AddItem(c.Request.Context(), userID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Item added to cart", cart)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	productID := utils.ParseStringToUUID(c.Param("productId"))
	if productID == uuid.Nil {
		response.BadRequest(c, "invalid product id")
		return
	}

	cart, err := h.service.RemoveItem(c.Request.Context(), userID, productID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Item removed from cart", cart)
}

func (h *CartHandler) handleServiceError(c *gin.Context, err error) {
	var productErr *productModel.ProductError
	if errors.As(err, &productErr) {
		switch productErr.Code {
		case productModel.ErrCodeProductNotFound:
			response.Error(c, http.StatusNotFound, productErr.Code, productErr.Message)
		case productModel.ErrCodeInsufficientStock:
			response.Error(c, http.StatusConflict, productErr.Code, productErr.Message)
		default:
			response.Error(c, http.StatusBadRequest, productErr.Code, productErr.Message)
		}
		return
	}

	switch {
	case errors.Is(err, cartModel.ErrCartNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, cartModel.ErrCartItemNotFound):
		response.NotFound(c, err.Error())
	default:
		response.InternalError(c, "something went wrong")
	}
}
