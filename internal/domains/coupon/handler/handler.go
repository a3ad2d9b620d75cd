package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shopora-backend/internal/domains/coupon/model"
	"shopora-backend/internal/domains/coupon/service"
	"shopora-backend/internal/shared/middleware"
	"shopora-backend/internal/shared/response"
	"shopora-backend/internal/shared/utils"
)

type CouponHandler struct {
	service service.CouponService
}

func NewCouponHandler(service service.CouponService) *CouponHandler {
	return &CouponHandler{service: service}
}

// RegisterRoutes mounts the user-facing validation endpoint and the admin
// CRUD surface.
func (h *CouponHandler) RegisterRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	coupons := rg.Group("/coupons")
	coupons.Use(authMW)
	{
		coupons.GET("/validate/:code", h.Validate)
	}

	admin := rg.Group("/admin/coupons")
	admin.Use(authMW, adminMW)
	{
		admin.POST("", h.Create)
		admin.GET("", h.List)
		admin.GET("/code/:code", h.GetByCode)
		admin.DELETE("/:id", h.Delete)
		admin.POST("/:id/assign", h.AssignToUser)
	}
}

// Validate checks whether the caller can redeem the coupon right now.
// It does not consume a usage; that happens when an order is placed.
func (h *CouponHandler) Validate(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	discount, err := h.service.Validate(c.Request.Context(), c.Param("code"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Coupon is valid", discount)
}

func (h *CouponHandler) Create(c *gin.Context) {
	var req model.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	createdBy, _ := middleware.GetUserID(c)
	coupon, err := h.service.Create(c.Request.Context(), req, createdBy)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Coupon created", coupon)
}

// GetByCode returns the raw coupon record, window and status included,
// without running redemption checks.
func (h *CouponHandler) GetByCode(c *gin.Context) {
	coupon, err := h.service.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Coupon retrieved", coupon)
}

func (h *CouponHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	coupons, total, err := h.service.List(c.Request.Context(), page, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	response.SuccessWithMeta(c, http.StatusOK, "Coupons retrieved", coupons, &response.Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	})
}

func (h *CouponHandler) Delete(c *gin.Context) {
	id := utils.ParseStringToUUID(c.Param("id"))
	if id == uuid.Nil {
		response.BadRequest(c, "invalid coupon id")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Coupon deleted", nil)
}

func (h *CouponHandler) AssignToUser(c *gin.Context) {
	id := utils.ParseStringToUUID(c.Param("id"))
	if id == uuid.Nil {
		response.BadRequest(c, "invalid coupon id")
		return
	}

	var req model.AssignCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	assignment, err := h.service.AssignToUser(c.Request.Context(), id, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Coupon assigned", assignment)
}

func (h *CouponHandler) handleServiceError(c *gin.Context, err error) {
	if couponErr, ok := err.(*model.CouponError); ok {
		status := getHTTPStatusFromErrorCode(couponErr.Code)
		response.Error(c, status, couponErr.Code, couponErr.Message)
		return
	}

	response.InternalError(c, "something went wrong")
}

func getHTTPStatusFromErrorCode(code string) int {
	switch code {
	case model.ErrCodeCouponNotFound:
		return http.StatusNotFound
	case model.ErrCodeCouponExpired,
		model.ErrCodeCouponNotYetStarted,
		model.ErrCodeCouponOutOfWindow,
		model.ErrCodeCouponUsageExceeded:
		return http.StatusUnprocessableEntity
	case model.ErrCodeCouponNotAssigned:
		return http.StatusForbidden
	case model.ErrCodeCouponCodeTaken:
		return http.StatusConflict
	case model.ErrCodeCouponInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
