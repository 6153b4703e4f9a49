package common

const (
	InvoiceStatusDue     = "DUE"
	InvoiceStatusPaid    = "PAID"
	InvoiceStatusInvalid = "INVALID"

	PaymentStatusVerified = "VERIFIED"
	PaymentStatusFailed   = "FAILED"
)
