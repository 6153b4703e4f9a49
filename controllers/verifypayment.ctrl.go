package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/chainvoice/chainvoice/common"
	"github.com/chainvoice/chainvoice/lib/responses"
	"github.com/chainvoice/chainvoice/lib/service"
	"github.com/labstack/echo/v4"
)

// VerifyPaymentController : Payment verification controller struct
type VerifyPaymentController struct {
	svc *service.ChainvoiceService
}

func NewVerifyPaymentController(svc *service.ChainvoiceService) *VerifyPaymentController {
	return &VerifyPaymentController{svc: svc}
}

type VerifyPaymentRequestBody struct {
	InvoiceID string `json:"invoice_id" validate:"required"`
	TxHash    string `json:"tx_hash" validate:"required"`
}

type VerifyPaymentResponseBody struct {
	Success       bool      `json:"success"`
	Status        string    `json:"status"`
	InvoiceID     string    `json:"invoice_id"`
	InvoiceStatus string    `json:"invoice_status"`
	TxHash        string    `json:"tx_hash"`
	FromAddress   string    `json:"from_address"`
	ToAddress     string    `json:"to_address"`
	Amount        string    `json:"amount"`
	VerifiedAt    time.Time `json:"verified_at,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	Message       string    `json:"message"`
}

// VerifyPayment godoc
// @Summary      Verify an invoice payment
// @Description  Checks a claimed transaction hash against chain state and records the verdict
// @Accept       json
// @Produce      json
// @Tags         Payment
// @Param        VerifyPaymentRequest  body      VerifyPaymentRequestBody  True  "Claimed payment"
// @Success      200                   {object}  VerifyPaymentResponseBody
// @Failure      400                   {object}  responses.ErrorResponse
// @Failure      404                   {object}  responses.ErrorResponse
// @Failure      500                   {object}  responses.ErrorResponse
// @Router       /v2/payments/verify [post]
func (controller *VerifyPaymentController) VerifyPayment(c echo.Context) error {
	reqBody := VerifyPaymentRequestBody{}
	if err := c.Bind(&reqBody); err != nil {
		c.Logger().Errorf("Failed to load verify payment request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	if err := c.Validate(&reqBody); err != nil {
		c.Logger().Errorf("Invalid verify payment request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	c.Logger().Infof("Verifying payment: invoice_id:%s tx:%s", reqBody.InvoiceID, reqBody.TxHash)

	payment, invoice, err := controller.svc.VerifyPayment(c.Request().Context(), reqBody.InvoiceID, reqBody.TxHash)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvoiceNotFound):
			c.Logger().Errorf("Invoice not found: invoice_id:%s", reqBody.InvoiceID)
			return c.JSON(http.StatusNotFound, responses.InvoiceNotFoundError)
		case errors.Is(err, service.ErrTransactionNotFound):
			c.Logger().Errorf("Transaction not found: tx:%s", reqBody.TxHash)
			return c.JSON(http.StatusNotFound, responses.TransactionNotFoundError)
		case errors.Is(err, service.ErrReceiptNotFound):
			c.Logger().Errorf("Receipt not found: tx:%s", reqBody.TxHash)
			return c.JSON(http.StatusNotFound, responses.ReceiptNotFoundError)
		case errors.Is(err, service.ErrNoTransferEvent):
			c.Logger().Errorf("No transfer event: tx:%s", reqBody.TxHash)
			return c.JSON(http.StatusBadRequest, responses.NoTransferEventError)
		default:
			// chain node or store trouble, nothing was persisted, caller may retry
			return err
		}
	}

	responseBody := VerifyPaymentResponseBody{
		Success:       payment.Status == common.PaymentStatusVerified,
		Status:        payment.Status,
		InvoiceID:     invoice.ID,
		InvoiceStatus: invoice.Status,
		TxHash:        payment.TxHash,
		FromAddress:   payment.FromAddress,
		ToAddress:     payment.ToAddress,
		Amount:        payment.Amount,
		VerifiedAt:    payment.VerifiedAt.Time,
		ErrorMessage:  payment.ErrorMessage,
	}
	if responseBody.Success {
		responseBody.Message = "Payment verified successfully"
	} else {
		responseBody.Message = "Payment verification failed"
	}

	return c.JSON(http.StatusOK, &responseBody)
}
