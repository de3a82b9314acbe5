package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"evcharge-backend/internal/domains/wallet/model"
	"evcharge-backend/internal/domains/wallet/service"
	"evcharge-backend/internal/shared/middleware"
	res "evcharge-backend/internal/shared/response"
	"evcharge-backend/internal/shared/utils"
)

type WalletHandler struct {
	service service.Service
}

func NewWalletHandler(s service.Service) *WalletHandler {
	return &WalletHandler{service: s}
}

// GetMyWallet GET /api/wallet
func (h *WalletHandler) GetMyWallet(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		res.Unauthorized(c, "Unauthorized")
		return
	}

	wallet, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		handleWalletError(c, err)
		return
	}

	res.Success(c, http.StatusOK, "Success", wallet)
}

// PayInvoice POST /api/wallet/pay-invoice
func (h *WalletHandler) PayInvoice(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		res.Unauthorized(c, "Unauthorized")
		return
	}

	var req model.PayInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		res.Error(c, http.StatusBadRequest, model.ErrCodeInvalidInput, "Invalid request body")
		return
	}

	out, err := h.service.PayInvoice(c.Request.Context(), userID, req)
	if err != nil {
		handleWalletError(c, err)
		return
	}

	message := "Invoice paid"
	if out.AlreadyPaid {
		message = "Invoice already paid"
	}
	res.Success(c, http.StatusOK, message, out)
}

// TopUp POST /api/admin/wallets/:user_id/topup
func (h *WalletHandler) TopUp(c *gin.Context) {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		res.Unauthorized(c, "Unauthorized")
		return
	}
	userID, ok := utils.ParseUUIDParam(c, "user_id")
	if !ok {
		res.Error(c, http.StatusBadRequest, model.ErrCodeInvalidInput, "Invalid user ID")
		return
	}

	var req model.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		res.Error(c, http.StatusBadRequest, model.ErrCodeInvalidInput, "Invalid request body")
		return
	}

	txn, err := h.service.TopUp(c.Request.Context(), adminID, userID, req)
	if err != nil {
		handleWalletError(c, err)
		return
	}

	res.Success(c, http.StatusCreated, "Wallet topped up", txn)
}

func handleWalletError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInvoiceNotFound):
		res.Error(c, http.StatusNotFound, model.ErrCodeInvoiceNotFound, "Invoice not found")
	case errors.Is(err, model.ErrForbidden):
		res.Error(c, http.StatusForbidden, model.ErrCodeForbidden, "You do not have access to this invoice")
	case errors.Is(err, model.ErrInvoiceNotPayable):
		res.Error(c, http.StatusConflict, model.ErrCodeInvoiceNotPayable, "Invoice is not awaiting payment")
	case errors.Is(err, model.ErrInsufficientBalance):
		res.Error(c, http.StatusPaymentRequired, model.ErrCodeInsufficientBalance, "Insufficient wallet balance")
	default:
		var we *model.WalletError
		if errors.As(err, &we) {
			status := http.StatusBadRequest
			switch we.Code {
			case model.ErrCodeDuplicateReference:
				status = http.StatusConflict
			case model.ErrCodeUserNotFound:
				status = http.StatusNotFound
			}
			res.Error(c, status, we.Code, we.Message)
			return
		}
		res.InternalServerError(c, "Internal server error")
	}
}
