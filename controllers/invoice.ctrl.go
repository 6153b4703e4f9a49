package controllers

import (
	"net/http"
	"time"

	"github.com/chainvoice/chainvoice/db/models"
	"github.com/chainvoice/chainvoice/lib/responses"
	"github.com/chainvoice/chainvoice/lib/service"
	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

// InvoiceController : Invoice listing and authoring controller struct
type InvoiceController struct {
	svc *service.ChainvoiceService
}

func NewInvoiceController(svc *service.ChainvoiceService) *InvoiceController {
	return &InvoiceController{svc: svc}
}

type Invoice struct {
	ID            string    `json:"id"`
	Description   string    `json:"description,omitempty"`
	VendorAddress string    `json:"vendor_address"`
	AmountDue     string    `json:"amount_due"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

type GetInvoicesResponseBody struct {
	Invoices []Invoice `json:"invoices"`
}

type Payment struct {
	InvoiceID    string    `json:"invoice_id"`
	TxHash       string    `json:"tx_hash"`
	FromAddress  string    `json:"from_address"`
	ToAddress    string    `json:"to_address"`
	Amount       string    `json:"amount"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	VerifiedAt   time.Time `json:"verified_at,omitempty"`
}

type GetPaymentsResponseBody struct {
	Payments []Payment `json:"payments"`
}

func invoiceDTO(invoice models.Invoice) Invoice {
	return Invoice{
		ID:            invoice.ID,
		Description:   invoice.Description,
		VendorAddress: invoice.VendorAddress,
		AmountDue:     invoice.AmountDue,
		Status:        invoice.Status,
		CreatedAt:     invoice.CreatedAt,
	}
}

func paymentDTO(payment models.Payment) Payment {
	return Payment{
		InvoiceID:    payment.InvoiceID,
		TxHash:       payment.TxHash,
		FromAddress:  payment.FromAddress,
		ToAddress:    payment.ToAddress,
		Amount:       payment.Amount,
		Status:       payment.Status,
		ErrorMessage: payment.ErrorMessage,
		VerifiedAt:   payment.VerifiedAt.Time,
	}
}

// GetInvoices godoc
// @Summary      List invoices
// @Description  Returns all invoices with their settlement status
// @Accept       json
// @Produce      json
// @Tags         Invoice
// @Success      200  {object}  GetInvoicesResponseBody
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v2/invoices [get]
func (controller *InvoiceController) GetInvoices(c echo.Context) error {
	invoices, err := controller.svc.Invoices(c.Request().Context())
	if err != nil {
		return err
	}

	response := make([]Invoice, len(invoices))
	for i, invoice := range invoices {
		response[i] = invoiceDTO(invoice)
	}
	return c.JSON(http.StatusOK, &GetInvoicesResponseBody{Invoices: response})
}

// GetInvoice godoc
// @Summary      Get a specific invoice
// @Description  Retrieve a single invoice by id
// @Accept       json
// @Produce      json
// @Tags         Invoice
// @Param        id  path  string  true  "Invoice id"
// @Success      200  {object}  Invoice
// @Failure      404  {object}  responses.ErrorResponse
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v2/invoices/{id} [get]
func (controller *InvoiceController) GetInvoice(c echo.Context) error {
	invoice, err := controller.svc.FindInvoice(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if invoice == nil {
		c.Logger().Errorf("Invoice not found: invoice_id:%s", c.Param("id"))
		return c.JSON(http.StatusNotFound, responses.InvoiceNotFoundError)
	}
	responseBody := invoiceDTO(*invoice)
	return c.JSON(http.StatusOK, &responseBody)
}

// GetInvoicePayments godoc
// @Summary      List verification attempts for an invoice
// @Description  Returns the append-only evidence trail of payment attempts
// @Accept       json
// @Produce      json
// @Tags         Invoice
// @Param        id  path  string  true  "Invoice id"
// @Success      200  {object}  GetPaymentsResponseBody
// @Failure      404  {object}  responses.ErrorResponse
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v2/invoices/{id}/payments [get]
func (controller *InvoiceController) GetInvoicePayments(c echo.Context) error {
	invoice, err := controller.svc.FindInvoice(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if invoice == nil {
		c.Logger().Errorf("Invoice not found: invoice_id:%s", c.Param("id"))
		return c.JSON(http.StatusNotFound, responses.InvoiceNotFoundError)
	}

	payments, err := controller.svc.InvoicePayments(c.Request().Context(), invoice.ID)
	if err != nil {
		return err
	}

	response := make([]Payment, len(payments))
	for i, payment := range payments {
		response[i] = paymentDTO(payment)
	}
	return c.JSON(http.StatusOK, &GetPaymentsResponseBody{Payments: response})
}

type AddInvoiceRequestBody struct {
	VendorAddress string `json:"vendor_address" validate:"required"`
	AmountDue     string `json:"amount_due" validate:"required"`
	Description   string `json:"description"`
}

// AddInvoice godoc
// @Summary      Create a new invoice
// @Description  Creates a DUE invoice payable to the given vendor address
// @Accept       json
// @Produce      json
// @Tags         Invoice
// @Param        invoice  body      AddInvoiceRequestBody  True  "Add Invoice"
// @Success      200      {object}  Invoice
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      500      {object}  responses.ErrorResponse
// @Router       /v2/invoices [post]
func (controller *InvoiceController) AddInvoice(c echo.Context) error {
	var body AddInvoiceRequestBody

	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load addinvoice request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid addinvoice request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	invoice, err := controller.svc.AddInvoice(c.Request().Context(), body.VendorAddress, body.AmountDue, body.Description)
	if err != nil {
		c.Logger().Errorf("Error creating invoice: vendor:%s error: %v", body.VendorAddress, err)
		sentry.CaptureException(err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	responseBody := invoiceDTO(*invoice)
	return c.JSON(http.StatusOK, &responseBody)
}
