package integration_tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chainvoice/chainvoice/common"
	"github.com/chainvoice/chainvoice/controllers"
	"github.com/chainvoice/chainvoice/lib"
	"github.com/chainvoice/chainvoice/lib/responses"
	"github.com/chainvoice/chainvoice/lib/service"
	"github.com/chainvoice/chainvoice/lib/tokens"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

const testAdminToken = "integration-test-admin-token"

type InvoiceTestSuite struct {
	TestSuite
	service   *service.ChainvoiceService
	mockChain *MockChainClient
}

func (suite *InvoiceTestSuite) SetupSuite() {
	mockChain := NewMockChainClient()
	svc, err := ChainvoiceTestServiceInit(mockChain)
	if err != nil {
		log.Fatalf("Error initializing test service: %v", err)
	}
	svc.Config.AdminToken = testAdminToken
	suite.mockChain = mockChain
	suite.service = svc
	e := echo.New()

	e.HTTPErrorHandler = responses.HTTPErrorHandler
	e.Validator = &lib.CustomValidator{Validator: validator.New()}
	suite.echo = e
	invoiceCtrl := controllers.NewInvoiceController(suite.service)
	suite.echo.GET("/v2/invoices", invoiceCtrl.GetInvoices)
	suite.echo.GET("/v2/invoices/:id", invoiceCtrl.GetInvoice)
	suite.echo.GET("/v2/invoices/:id/payments", invoiceCtrl.GetInvoicePayments)
	suite.echo.POST("/v2/invoices", invoiceCtrl.AddInvoice, tokens.AdminTokenMiddleware(testAdminToken))
}

func (suite *InvoiceTestSuite) TearDownTest() {
	assert.NoError(suite.T(), clearTable(suite.service, "payments"))
	assert.NoError(suite.T(), clearTable(suite.service, "invoices"))
}

func (suite *InvoiceTestSuite) addInvoiceReq(body *controllers.AddInvoiceRequestBody, token string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var buf bytes.Buffer
	assert.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, "/v2/invoices", &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	suite.echo.ServeHTTP(rec, req)
	return rec
}

func (suite *InvoiceTestSuite) TestAddInvoice() {
	rec := suite.addInvoiceReq(&controllers.AddInvoiceRequestBody{
		VendorAddress: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		AmountDue:     "10000000",
		Description:   "created over http",
	}, testAdminToken)
	invoiceResponse := &controllers.Invoice{}
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(invoiceResponse))
	assert.NotEmpty(suite.T(), invoiceResponse.ID)
	assert.Equal(suite.T(), common.InvoiceStatusDue, invoiceResponse.Status)
	// vendor address is stored normalized
	assert.Equal(suite.T(), mockVendorAddress, invoiceResponse.VendorAddress)
	assert.Equal(suite.T(), "10000000", invoiceResponse.AmountDue)
}

func (suite *InvoiceTestSuite) TestAddInvoiceRequiresAdminToken() {
	rec := suite.addInvoiceReq(&controllers.AddInvoiceRequestBody{
		VendorAddress: mockVendorAddress,
		AmountDue:     "10000000",
	}, "")
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)

	rec = suite.addInvoiceReq(&controllers.AddInvoiceRequestBody{
		VendorAddress: mockVendorAddress,
		AmountDue:     "10000000",
	}, "wrong-token")
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
}

func (suite *InvoiceTestSuite) TestAddInvoiceRejectsBadAmount() {
	for _, amount := range []string{"not-a-number", "-5", "1.5"} {
		rec := suite.addInvoiceReq(&controllers.AddInvoiceRequestBody{
			VendorAddress: mockVendorAddress,
			AmountDue:     amount,
		}, testAdminToken)
		errorResponse := checkErrResponse(&suite.TestSuite, rec, http.StatusBadRequest)
		assert.Equal(suite.T(), responses.BadArgumentsError.Message, errorResponse.Message)
	}
}

func (suite *InvoiceTestSuite) TestGetInvoices() {
	_, err := createTestInvoice(suite.service, mockVendorAddress, "1000000", "first")
	assert.NoError(suite.T(), err)
	_, err = createTestInvoice(suite.service, mockVendorAddress, "2000000", "second")
	assert.NoError(suite.T(), err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v2/invoices", nil)
	suite.echo.ServeHTTP(rec, req)
	listResponse := &controllers.GetInvoicesResponseBody{}
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(listResponse))
	assert.Equal(suite.T(), 2, len(listResponse.Invoices))
}

func (suite *InvoiceTestSuite) TestGetUnknownInvoice() {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v2/invoices/00000000-0000-0000-0000-000000000000", nil)
	suite.echo.ServeHTTP(rec, req)
	errorResponse := checkErrResponse(&suite.TestSuite, rec, http.StatusNotFound)
	assert.Equal(suite.T(), responses.InvoiceNotFoundError.Message, errorResponse.Message)
}

func (suite *InvoiceTestSuite) TestGetPaymentsOfUnknownInvoice() {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v2/invoices/00000000-0000-0000-0000-000000000000/payments", nil)
	suite.echo.ServeHTTP(rec, req)
	checkErrResponse(&suite.TestSuite, rec, http.StatusNotFound)
}

func (suite *InvoiceTestSuite) TestGetInvoicePaymentsEmpty() {
	invoice, err := createTestInvoice(suite.service, mockVendorAddress, "1000000", "no attempts yet")
	assert.NoError(suite.T(), err)

	payments := suite.getInvoicePaymentsReq(invoice.ID)
	assert.Empty(suite.T(), payments.Payments)
}

func TestInvoiceSuite(t *testing.T) {
	suite.Run(t, new(InvoiceTestSuite))
}
