package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"evcharge-backend/internal/domains/payment/gateway/vnpay"
	"evcharge-backend/internal/domains/payment/model"
	"evcharge-backend/internal/domains/payment/service"
	"evcharge-backend/internal/shared/middleware"
	res "evcharge-backend/internal/shared/response"
	"evcharge-backend/pkg/logger"
)

const exportDateLayout = "2006-01-02"

type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler creates new payment handler
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// =====================================================
// USER PAYMENT ENDPOINTS
// =====================================================

// CreatePaymentURL creates a VNPay attempt for an invoice
// POST /api/vnpay/create-payment-url
func (h *PaymentHandler) CreatePaymentURL(c *gin.Context) {
	// Step 1: Get user ID from context
	userID, ok := middleware.GetUserID(c)
	if !ok {
		res.Error(c, http.StatusUnauthorized, "AUTH_ERROR", "Unauthorized")
		return
	}

	// Step 2: Bind request body
	var req model.CreatePaymentURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		res.Error(c, http.StatusBadRequest, model.ErrCodeValidation, err.Error())
		return
	}
	req.ClientIP = middleware.GetClientIP(c)

	// Step 3: Call service
	resp, err := h.paymentService.CreatePaymentURL(c.Request.Context(), userID, req)
	if err != nil {
		statusCode, errCode := mapPaymentError(err)
		res.Error(c, statusCode, errCode, errorMessage(err))
		return
	}

	res.Success(c, http.StatusCreated, "Payment URL created", resp)
}

// PayWithMock settles an invoice without VNPay (dev only)
// POST /api/payments/mock
func (h *PaymentHandler) PayWithMock(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		res.Error(c, http.StatusUnauthorized, "AUTH_ERROR", "Unauthorized")
		return
	}

	var req model.MockPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		res.Error(c, http.StatusBadRequest, model.ErrCodeValidation, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		res.Error(c, http.StatusBadRequest, model.ErrCodeValidation, err.Error())
		return
	}

	resp, err := h.paymentService.PayWithMock(c.Request.Context(), userID, uuid.MustParse(req.InvoiceID))
	if err != nil {
		statusCode, errCode := mapPaymentError(err)
		res.Error(c, statusCode, errCode, errorMessage(err))
		return
	}

	res.Success(c, http.StatusOK, "Payment successful", resp)
}

// =====================================================
// VNPAY CALLBACKS (anonymous)
// =====================================================

// VerifyReturn handles the browser redirect back from VNPay
// GET /api/vnpay/verify-return
func (h *PaymentHandler) VerifyReturn(c *gin.Context) {
	params, err := vnpay.ParseCallbackQuery(c.Request.URL.RawQuery)
	if err != nil {
		res.Error(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid query string")
		return
	}

	result := h.paymentService.VerifyCallback(c.Request.Context(), model.SourceReturn, params)

	// Return URL chỉ hiển thị kết quả cho user, luôn 200
	res.Success(c, http.StatusOK, result.Message, result)
}

// IPN handles server-to-server notification from VNPay
// GET|POST /api/vnpay/ipn
//
// Luôn trả HTTP 200 với {RspCode, Message}. VNPay chỉ retry khi RspCode = 99.
func (h *PaymentHandler) IPN(c *gin.Context) {
	params, err := ipnParams(c)
	if err != nil {
		logger.Warn("VNPay IPN unreadable", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusOK, model.IPNResponse{RspCode: model.RspCodeUnknownError, Message: "Unknown error"})
		return
	}

	result := h.paymentService.VerifyCallback(c.Request.Context(), model.SourceIPN, params)

	c.JSON(http.StatusOK, model.IPNResponse{
		RspCode: result.IPNCode(),
		Message: result.IPNMessage(),
	})
}

func ipnParams(c *gin.Context) (map[string]string, error) {
	if c.Request.Method == http.MethodGet {
		return vnpay.ParseCallbackQuery(c.Request.URL.RawQuery)
	}
	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	return vnpay.FlattenValues(c.Request.Form), nil
}

// =====================================================
// ADMIN ENDPOINTS
// =====================================================

// ExportPayments downloads payment records as XLSX
// GET /api/admin/payments/export?from=2026-10-01&to=2026-10-14
func (h *PaymentHandler) ExportPayments(c *gin.Context) {
	// Step 1: Parse range (to là ngày cuối, inclusive)
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now

	if v := c.Query("from"); v != "" {
		t, err := time.ParseInLocation(exportDateLayout, v, vnpay.Location())
		if err != nil {
			res.Error(c, http.StatusBadRequest, model.ErrCodeValidation, "from must be YYYY-MM-DD")
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.ParseInLocation(exportDateLayout, v, vnpay.Location())
		if err != nil {
			res.Error(c, http.StatusBadRequest, model.ErrCodeValidation, "to must be YYYY-MM-DD")
			return
		}
		to = t.Add(24 * time.Hour)
	}

	// Step 2: Build file
	f, err := h.paymentService.ExportPayments(c.Request.Context(), model.ExportPaymentsRequest{From: from, To: to})
	if err != nil {
		statusCode, errCode := mapPaymentError(err)
		res.Error(c, statusCode, errCode, errorMessage(err))
		return
	}
	defer f.Close()

	// Step 3: Stream
	filename := fmt.Sprintf("payments_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	if err := f.Write(c.Writer); err != nil {
		logger.Error("Failed to write payment export", err)
	}
}

// =====================================================
// HELPERS
// =====================================================

func mapPaymentError(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, model.ErrCodeValidation
	case errors.Is(err, model.ErrInvoiceNotFound):
		return http.StatusNotFound, model.ErrCodeInvoiceNotFound
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, model.ErrCodeForbidden
	case errors.Is(err, model.ErrInvoiceNotUnpaid):
		return http.StatusConflict, model.ErrCodeInvoiceNotUnpaid
	case errors.Is(err, model.ErrTooManyAttempts):
		return http.StatusTooManyRequests, model.ErrCodeTooManyAttempts
	case errors.Is(err, model.ErrMockDisabled):
		return http.StatusNotFound, model.ErrCodeMockDisabled
	}

	var pe *model.PaymentError
	if errors.As(err, &pe) && pe.Code == model.ErrCodeGatewayError {
		return http.StatusBadGateway, pe.Code
	}
	return http.StatusInternalServerError, model.ErrCodeInternal
}

// errorMessage không lộ lỗi nội bộ ra client
func errorMessage(err error) string {
	var pe *model.PaymentError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return "Internal server error"
}
