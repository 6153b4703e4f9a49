package transport

import (
	cache "github.com/SporkHubr/echo-http-cache"
	"github.com/chainvoice/chainvoice/controllers"
	"github.com/chainvoice/chainvoice/lib/service"
	"github.com/labstack/echo/v4"
)

func RegisterEndpoints(svc *service.ChainvoiceService, e *echo.Echo, strictRateLimitMiddleware echo.MiddlewareFunc, adminMw echo.MiddlewareFunc, logMw echo.MiddlewareFunc, cacheClient *cache.Client) {
	e.GET("/v2/health", controllers.NewHealthController().Check)

	invoiceCtrl := controllers.NewInvoiceController(svc)
	e.GET("/v2/invoices", invoiceCtrl.GetInvoices, cacheClient.Middleware(), logMw)
	e.GET("/v2/invoices/:id", invoiceCtrl.GetInvoice, logMw)
	e.GET("/v2/invoices/:id/payments", invoiceCtrl.GetInvoicePayments, logMw)
	// invoice authoring is operational glue, kept behind the admin token
	e.POST("/v2/invoices", invoiceCtrl.AddInvoice, strictRateLimitMiddleware, adminMw, logMw)

	// verification drives writes, so it gets the strict limiter
	e.POST("/v2/payments/verify", controllers.NewVerifyPaymentController(svc).VerifyPayment, strictRateLimitMiddleware, logMw)
}
