package responses

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error          bool   `json:"error"`
	Code           int    `json:"code"`
	Message        string `json:"message"`
	HttpStatusCode int    `json:"-"`
}

var GeneralServerError = ErrorResponse{
	Error:          true,
	Code:           6,
	Message:        "Something went wrong. Please try again later",
	HttpStatusCode: 500,
}

var BadArgumentsError = ErrorResponse{
	Error:          true,
	Code:           8,
	Message:        "Bad arguments",
	HttpStatusCode: 400,
}

var InvoiceNotFoundError = ErrorResponse{
	Error:          true,
	Code:           2,
	Message:        "invoice not found",
	HttpStatusCode: 404,
}

var TransactionNotFoundError = ErrorResponse{
	Error:          true,
	Code:           3,
	Message:        "transaction not found on-chain. If it was submitted recently, retry once it is mined",
	HttpStatusCode: 404,
}

var ReceiptNotFoundError = ErrorResponse{
	Error:          true,
	Code:           3,
	Message:        "transaction receipt not found. Retry once the transaction is mined",
	HttpStatusCode: 404,
}

var NoTransferEventError = ErrorResponse{
	Error:          true,
	Code:           4,
	Message:        "no transfer of the settlement token found in this transaction",
	HttpStatusCode: 400,
}

func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	c.Logger().Error(err)
	if hub := sentryecho.GetHubFromContext(c); hub != nil && isErrAllowedForSentry(err) {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetExtra("RequestID", c.Response().Header().Get(echo.HeaderXRequestID))
			hub.CaptureException(err)
		})
	}
	if he, ok := err.(*echo.HTTPError); ok {
		c.JSON(he.Code, he.Message)
	} else {
		c.JSON(http.StatusInternalServerError, GeneralServerError)
	}
}

// client errors carry no signal for exception tracking, only server faults do
func isErrAllowedForSentry(err error) bool {
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		return true
	}
	return httpErr.Code >= http.StatusInternalServerError
}
