package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"evcharge-backend/internal/domains/invoice/model"
	"evcharge-backend/internal/domains/invoice/service"
	"evcharge-backend/internal/shared/middleware"
	res "evcharge-backend/internal/shared/response"
	"evcharge-backend/internal/shared/utils"
)

type InvoiceHandler struct {
	service service.Service
}

func NewInvoiceHandler(s service.Service) *InvoiceHandler {
	return &InvoiceHandler{service: s}
}

// ListMyInvoices GET /api/invoices?page=&limit=
func (h *InvoiceHandler) ListMyInvoices(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		res.Unauthorized(c, "Unauthorized")
		return
	}

	page, limit := utils.Pagination(c)
	out, err := h.service.ListByUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		handleInvoiceError(c, err)
		return
	}

	res.SuccessWithMeta(c, http.StatusOK, out.Invoices, &res.Meta{Page: out.Page, Limit: out.Limit, Total: out.Total})
}

// GetInvoice GET /api/invoices/:id
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		res.Unauthorized(c, "Unauthorized")
		return
	}
	invoiceID, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		res.Error(c, http.StatusBadRequest, model.ErrCodeInvalidInput, "Invalid invoice ID")
		return
	}

	inv, err := h.service.GetForUser(c.Request.Context(), userID, invoiceID)
	if err != nil {
		handleInvoiceError(c, err)
		return
	}

	res.Success(c, http.StatusOK, "Success", inv)
}

// GetQRCode GET /api/invoices/:id/qrcode
func (h *InvoiceHandler) GetQRCode(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		res.Unauthorized(c, "Unauthorized")
		return
	}
	invoiceID, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		res.Error(c, http.StatusBadRequest, model.ErrCodeInvalidInput, "Invalid invoice ID")
		return
	}

	qr, err := h.service.GetQRCode(c.Request.Context(), userID, invoiceID)
	if err != nil {
		handleInvoiceError(c, err)
		return
	}

	res.Success(c, http.StatusOK, "Success", qr)
}

func handleInvoiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInvoiceNotFound):
		res.Error(c, http.StatusNotFound, model.ErrCodeInvoiceNotFound, "Invoice not found")
	case errors.Is(err, model.ErrForbidden):
		res.Error(c, http.StatusForbidden, model.ErrCodeForbidden, "You do not have access to this invoice")
	default:
		var ie *model.InvoiceError
		if errors.As(err, &ie) {
			res.Error(c, http.StatusBadRequest, ie.Code, ie.Message)
			return
		}
		res.InternalServerError(c, "Internal server error")
	}
}
