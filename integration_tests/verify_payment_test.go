package integration_tests

import (
	"bytes"
	"encoding/json"
	"log"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chainvoice/chainvoice/common"
	"github.com/chainvoice/chainvoice/controllers"
	"github.com/chainvoice/chainvoice/lib"
	"github.com/chainvoice/chainvoice/lib/responses"
	"github.com/chainvoice/chainvoice/lib/service"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type VerifyPaymentTestSuite struct {
	TestSuite
	service   *service.ChainvoiceService
	mockChain *MockChainClient
}

func randomTxHash() string {
	return "0x" + random.String(64, random.Hex)
}

func (suite *VerifyPaymentTestSuite) SetupSuite() {
	mockChain := NewMockChainClient()
	svc, err := ChainvoiceTestServiceInit(mockChain)
	if err != nil {
		log.Fatalf("Error initializing test service: %v", err)
	}
	suite.mockChain = mockChain
	suite.service = svc
	e := echo.New()

	e.HTTPErrorHandler = responses.HTTPErrorHandler
	e.Validator = &lib.CustomValidator{Validator: validator.New()}
	suite.echo = e
	suite.echo.POST("/v2/payments/verify", controllers.NewVerifyPaymentController(suite.service).VerifyPayment)
	suite.echo.GET("/v2/invoices/:id", controllers.NewInvoiceController(suite.service).GetInvoice)
	suite.echo.GET("/v2/invoices/:id/payments", controllers.NewInvoiceController(suite.service).GetInvoicePayments)
}

func (suite *VerifyPaymentTestSuite) TearDownTest() {
	assert.NoError(suite.T(), clearTable(suite.service, "payments"))
	assert.NoError(suite.T(), clearTable(suite.service, "invoices"))
}

func (suite *VerifyPaymentTestSuite) TestVerifyExactPayment() {
	invoice, err := createTestInvoice(suite.service, mockVendorAddress, "10000000", "exact payment")
	assert.NoError(suite.T(), err)
	txHash := randomTxHash()
	suite.mockChain.AddTransfer(txHash, mockPayerAddress, mockVendorAddress, big.NewInt(10000000))

	verdict := suite.verifyPaymentReq(invoice.ID, txHash)
	assert.True(suite.T(), verdict.Success)
	assert.Equal(suite.T(), common.PaymentStatusVerified, verdict.Status)
	assert.Equal(suite.T(), common.InvoiceStatusPaid, verdict.InvoiceStatus)
	assert.Equal(suite.T(), txHash, verdict.TxHash)
	assert.Equal(suite.T(), mockPayerAddress, verdict.FromAddress)
	assert.Equal(suite.T(), mockVendorAddress, verdict.ToAddress)
	assert.Equal(suite.T(), "10000000", verdict.Amount)
	assert.False(suite.T(), verdict.VerifiedAt.IsZero())
	assert.Empty(suite.T(), verdict.ErrorMessage)

	// settlement must be visible on the invoice itself
	fetched := suite.getInvoiceReq(invoice.ID)
	assert.Equal(suite.T(), common.InvoiceStatusPaid, fetched.Status)
}

func (suite *VerifyPaymentTestSuite) TestVerifyOverpayment() {
	invoice, err := createTestInvoice(suite.service, mockVendorAddress, "10000000", "overpayment")
	assert.NoError(suite.T(), err)
	txHash := randomTxHash()
	suite.mockChain.AddTransfer(txHash, mockPayerAddress, mockVendorAddress, big.NewInt(10000001))

	verdict := suite.verifyPaymentReq(invoice.ID, txHash)
	assert.True(suite.T(), verdict.Success)
	assert.Equal(suite.T(), "10000001", verdict.Amount)
	assert.Equal(suite.T(), common.InvoiceStatusPaid, verdict.InvoiceStatus)
}

func (suite *VerifyPaymentTestSuite) TestVerifyUppercaseTxHashIsNormalized() {
	invoice, err := createTestInvoice(suite.service, mockVendorAddress, "5000000", "hash casing")
	assert.NoError(suite.T(), err)
	txHash := randomTxHash()
	suite.mockChain.AddTransfer(txHash, mockPayerAddress, mockVendorAddress, big.NewInt(5000000))

	verdict := suite.verifyPaymentReq(invoice.ID, "0x"+strings.ToUpper(txHash[2:]))
	assert.True(suite.T(), verdict.Success)
	assert.Equal(suite.T(), txHash, verdict.TxHash)
}

func (suite *VerifyPaymentTestSuite) TestVerifyWrongRecipient() {
	invoice, err := createTestInvoice(suite.service, mockVendorAddress, "10000000", "wrong recipient")
	assert.NoError(suite.T(), err)
	otherRecipient := "0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc"
	txHash := randomTxHash()
	suite.mockChain.AddTransfer(txHash, mockPayerAddress, otherRecipient, big.NewInt(10000000))

	verdict := suite.verifyPaymentReq(invoice.ID, txHash)
	assert.False(suite.T(), verdict.Success)
	assert.Equal(suite.T(), common.PaymentStatusFailed, verdict.Status)
	assert.Equal(suite.T(), common.InvoiceStatusDue, verdict.InvoiceStatus)
	assert.Equal(suite.T(), otherRecipient, verdict.ToAddress)
	assert.Contains(suite.T(), verdict.ErrorMessage, "Wrong recipient")
	assert.Contains(suite.T(), verdict.ErrorMessage, mockVendorAddress)

	fetched := suite.getInvoiceReq(invoice.ID)
	assert.Equal(suite.T(), common.InvoiceStatusDue, fetched.Status)
}

func (suite *VerifyPaymentTestSuite) TestVerifyInsufficientAmount() {
	invoice, err := createTestInvoice(suite.service, mockVendorAddress, "10000000", "underpayment")
	assert.NoError(suite.T(), err)
	txHash := randomTxHash()
	suite.mockChain.AddTransfer(txHash, mockPayerAddress, mockVendorAddress, big.NewInt(9999999))

	verdict := suite.verifyPaymentReq(invoice.ID, txHash)
	assert.False(suite.T(), verdict.Success)
	assert.Equal(suite.T(), common.PaymentStatusFailed, verdict.Status)
	assert.Equal(suite.T(), "9999999", verdict.Amount)
	assert.Contains(suite.T(), verdict.ErrorMessage, "Insufficient amount")

	fetched := suite.getInvoiceReq(invoice.ID)
	assert.Equal(suite.T(), common.InvoiceStatusDue, fetched.Status)
}

func (suite *VerifyPaymentTestSuite) TestVerifyRevertedTransaction() {
	invoice, err := createTestInvoice(suite.service, mockVendorAddress, "10000000", "reverted")
	assert.NoError(suite.T(), err)
	txHash := randomTxHash()
	suite.mockChain.AddReverted(txHash, mockPayerAddress, testTokenAddress)

	verdict := suite.verifyPaymentReq(invoice.ID, txHash)
	assert.False(suite.T(), verdict.Success)
	assert.Equal(suite.T(), common.PaymentStatusFailed, verdict.Status)
	assert.Equal(suite.T(), "Transaction failed on-chain", verdict.ErrorMessage)
	// no transfer happened so the claimed amount is what gets recorded
	assert.Equal(suite.T(), "10000000", verdict.Amount)

	fetched := suite.getInvoiceReq(invoice.ID)
	assert.Equal(suite.T(), common.InvoiceStatusDue, fetched.Status)
}

func (suite *VerifyPaymentTestSuite) TestVerifyNoTransferEvent() {
	invoice, err := createTestInvoice(suite.service, mockVendorAddress, "10000000", "no transfer")
	assert.NoError(suite.T(), err)
	txHash := randomTxHash()
	suite.mockChain.AddPlainCall(txHash, mockPayerAddress, mockVendorAddress)

	suite.verifyPaymentReqError(invoice.ID, txHash, http.StatusBadRequest)

	// nothing gets persisted for a malformed claim
	payments := suite.getInvoicePaymentsReq(invoice.ID)
	assert.Empty(suite.T(), payments.Payments)
}

func (suite *VerifyPaymentTestSuite) TestVerifyOtherTokenTransferIgnored() {
	invoice, err := createTestInvoice(suite.service, mockVendorAddress, "10000000", "wrong token")
	assert.NoError(suite.T(), err)
	otherToken := "0xdac17f958d2ee523a2206206994597c13d831ec7"
	txHash := randomTxHash()
	suite.mockChain.AddTokenTransfer(txHash, otherToken, mockPayerAddress, mockVendorAddress, big.NewInt(10000000))

	suite.verifyPaymentReqError(invoice.ID, txHash, http.StatusBadRequest)

	payments := suite.getInvoicePaymentsReq(invoice.ID)
	assert.Empty(suite.T(), payments.Payments)
}

func (suite *VerifyPaymentTestSuite) TestVerifyTransactionNotFound() {
	invoice, err := createTestInvoice(suite.service, mockVendorAddress, "10000000", "unknown hash")
	assert.NoError(suite.T(), err)

	errorResponse := suite.verifyPaymentReqError(invoice.ID, randomTxHash(), http.StatusNotFound)
	assert.Equal(suite.T(), responses.TransactionNotFoundError.Message, errorResponse.Message)
}

func (suite *VerifyPaymentTestSuite) TestVerifyReceiptNotFound() {
	invoice, err := createTestInvoice(suite.service, mockVendorAddress, "10000000", "pending tx")
	assert.NoError(suite.T(), err)
	txHash := randomTxHash()
	suite.mockChain.AddPending(txHash, mockPayerAddress, testTokenAddress)

	errorResponse := suite.verifyPaymentReqError(invoice.ID, txHash, http.StatusNotFound)
	assert.Equal(suite.T(), responses.ReceiptNotFoundError.Message, errorResponse.Message)
}

func (suite *VerifyPaymentTestSuite) TestVerifyUnknownInvoice() {
	txHash := randomTxHash()
	suite.mockChain.AddTransfer(txHash, mockPayerAddress, mockVendorAddress, big.NewInt(10000000))

	errorResponse := suite.verifyPaymentReqError("00000000-0000-0000-0000-000000000000", txHash, http.StatusNotFound)
	assert.Equal(suite.T(), responses.InvoiceNotFoundError.Message, errorResponse.Message)
}

func (suite *VerifyPaymentTestSuite) TestVerifyMissingFields() {
	rec := httptest.NewRecorder()
	var buf bytes.Buffer
	assert.NoError(suite.T(), json.NewEncoder(&buf).Encode(&controllers.VerifyPaymentRequestBody{
		TxHash: randomTxHash(),
	}))
	req := httptest.NewRequest(http.MethodPost, "/v2/payments/verify", &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	suite.echo.ServeHTTP(rec, req)
	errorResponse := checkErrResponse(&suite.TestSuite, rec, http.StatusBadRequest)
	assert.Equal(suite.T(), responses.BadArgumentsError.Message, errorResponse.Message)
}

func (suite *VerifyPaymentTestSuite) TestVerifyRetryWithNewHashAfterFailure() {
	invoice, err := createTestInvoice(suite.service, mockVendorAddress, "10000000", "retry after failure")
	assert.NoError(suite.T(), err)

	shortHash := randomTxHash()
	suite.mockChain.AddTransfer(shortHash, mockPayerAddress, mockVendorAddress, big.NewInt(1))
	verdict := suite.verifyPaymentReq(invoice.ID, shortHash)
	assert.False(suite.T(), verdict.Success)

	// a failed attempt must not consume the invoice
	goodHash := randomTxHash()
	suite.mockChain.AddTransfer(goodHash, mockPayerAddress, mockVendorAddress, big.NewInt(10000000))
	verdict = suite.verifyPaymentReq(invoice.ID, goodHash)
	assert.True(suite.T(), verdict.Success)
	assert.Equal(suite.T(), common.InvoiceStatusPaid, verdict.InvoiceStatus)

	// both attempts stay on the ledger
	payments := suite.getInvoicePaymentsReq(invoice.ID)
	assert.Equal(suite.T(), 2, len(payments.Payments))
}

func TestVerifyPaymentSuite(t *testing.T) {
	suite.Run(t, new(VerifyPaymentTestSuite))
}
