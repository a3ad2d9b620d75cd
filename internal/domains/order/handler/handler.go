package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	couponModel "shopora-backend/internal/domains/coupon/model"
	"shopora-backend/internal/domains/order/model"
	"shopora-backend/internal/domains/order/service"
	"shopora-backend/internal/domains/payment/gateway/stripe"
	productModel "shopora-backend/internal/domains/product/model"
	"shopora-backend/internal/shared/middleware"
	"shopora-backend/internal/shared/response"
	"shopora-backend/internal/shared/utils"
	"shopora-backend/pkg/logger"
)

type OrderHandler struct {
	service       service.OrderService
	webhookSecret string
}

func NewOrderHandler(service service.OrderService, webhookSecret string) *OrderHandler {
	return &OrderHandler{
		service:       service,
		webhookSecret: webhookSecret,
	}
}

// RegisterRoutes mounts buyer endpoints, admin endpoints and the
// unauthenticated (signature-verified) payment webhook.
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	orders := rg.Group("/orders")
	orders.Use(authMW)
	{
		orders.POST("", h.CreateOrder)
		orders.POST("/from-cart", h.ConvertCartToOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.POST("/:id/pay", h.PayOrderWithStripe)
		orders.POST("/:id/cancel", h.CancelOrder)
	}

	admin := rg.Group("/admin/orders")
	admin.Use(authMW, adminMW)
	{
		admin.POST("/:id/deliver", h.DeliverOrder)
		admin.POST("/:id/refund", h.RefundOrder)
	}

	// The provider authenticates with the signature header, not a JWT
	rg.POST("/webhooks/payment", h.ConfirmPayment)
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	var req model.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	for _, item := range req.Items {
		if err := item.Validate(); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	if err := req.ShippingAddress.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	order, err := h.service.CreateOrder(c.Request.Context(), userID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Order created", order)
}

func (h *OrderHandler) ConvertCartToOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	var req model.ConvertCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := req.ShippingAddress.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	order, err := h.service.ConvertCartToOrder(c.Request.Context(), userID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Order created from cart", order)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	orderID := utils.ParseStringToUUID(c.Param("id"))
	if orderID == uuid.Nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	order, err := h.service.GetOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Order retrieved", order)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	orders, total, err := h.service.ListOrders(c.Request.Context(), userID, page, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	response.SuccessWithMeta(c, http.StatusOK, "Orders retrieved", orders, &response.Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	})
}

func (h *OrderHandler) PayOrderWithStripe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	orderID := utils.ParseStringToUUID(c.Param("id"))
	if orderID == uuid.Nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	result, err := h.service.PayOrderWithStripe(c.Request.Context(), orderID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Checkout session created", result)
}

// ConfirmPayment handles the provider's webhook. Once the signature
// checks out the delivery is always acknowledged with 200, including
// duplicates.
func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "failed to read body")
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	if err := stripe.VerifyWebhookSignature(body, sigHeader, h.webhookSecret, time.Now()); err != nil {
		logger.Warn("Webhook signature rejected", map[string]interface{}{
			"error": err.Error(),
		})
		response.Unauthorized(c, "invalid webhook signature")
		return
	}

	var event model.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		response.BadRequest(c, "invalid webhook payload")
		return
	}

	if err := h.service.ConfirmPayment(c.Request.Context(), event); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	orderID := utils.ParseStringToUUID(c.Param("id"))
	if orderID == uuid.Nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	order, err := h.service.CancelOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Order cancelled", order)
}

func (h *OrderHandler) DeliverOrder(c *gin.Context) {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	orderID := utils.ParseStringToUUID(c.Param("id"))
	if orderID == uuid.Nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	order, err := h.service.DeliverOrder(c.Request.Context(), orderID, adminID)
	if err != nil {
		// A deliverable order is a Placed order; anything else reads as
		// "no such deliverable order" to the caller.
		var orderErr *model.OrderError
		if errors.As(err, &orderErr) && orderErr.Code == model.ErrCodeInvalidTransition {
			response.NotFound(c, orderErr.Message)
			return
		}
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Order delivered", order)
}

func (h *OrderHandler) RefundOrder(c *gin.Context) {
	orderID := utils.ParseStringToUUID(c.Param("id"))
	if orderID == uuid.Nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	order, err := h.service.RefundOrder(c.Request.Context(), orderID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Order refunded", order)
}

// =====================================================
// ERROR MAPPING
// =====================================================

func (h *OrderHandler) handleServiceError(c *gin.Context, err error) {
	var orderErr *model.OrderError
	if errors.As(err, &orderErr) {
		response.Error(c, getHTTPStatusFromErrorCode(orderErr.Code), orderErr.Code, orderErr.Message)
		return
	}

	var couponErr *couponModel.CouponError
	if errors.As(err, &couponErr) {
		status := http.StatusUnprocessableEntity
		if couponErr.Code == couponModel.ErrCodeCouponNotFound {
			status = http.StatusNotFound
		}
		response.Error(c, status, couponErr.Code, couponErr.Message)
		return
	}

	var productErr *productModel.ProductError
	if errors.As(err, &productErr) {
		status := http.StatusConflict
		if productErr.Code == productModel.ErrCodeProductNotFound {
			status = http.StatusNotFound
		}
		response.Error(c, status, productErr.Code, productErr.Message)
		return
	}

	logger.Error("Unhandled order service error", err)
	response.InternalError(c, "something went wrong")
}

func getHTTPStatusFromErrorCode(code string) int {
	switch code {
	case model.ErrCodeOrderNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidTransition:
		return http.StatusConflict
	case model.ErrCodeCancellationExpired:
		return http.StatusBadRequest
	case model.ErrCodeCouponNotApplicable:
		return http.StatusUnprocessableEntity
	case model.ErrCodeNotCardOrder, model.ErrCodeMissingPaymentIntent, model.ErrCodeEmptyOrder:
		return http.StatusBadRequest
	case model.ErrCodePaymentGatewayError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
