package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chainvoice/chainvoice/chain"
	"github.com/chainvoice/chainvoice/common"
	"github.com/chainvoice/chainvoice/db/models"
	"github.com/chainvoice/chainvoice/lib/codec"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/uptrace/bun"
)

var (
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrTransactionNotFound = errors.New("transaction not found on-chain")
	ErrReceiptNotFound     = errors.New("transaction receipt not found")
	ErrNoTransferEvent     = errors.New("no transfer event of the settlement token found in transaction")
)

// VerifyPayment decides whether txHash settles the invoice. Checks run
// cheapest first and every failure short-circuits: stored verdict, invoice
// existence, chain lookups, receipt status, transfer event presence, recipient
// and finally amount. Business failures (revert, wrong recipient,
// underpayment) are persisted as FAILED ledger rows and returned as verdicts;
// lookup failures are returned as errors with nothing persisted, so callers
// can retry once the underlying condition resolves.
func (svc *ChainvoiceService) VerifyPayment(ctx context.Context, invoiceId string, txHash string) (*models.Payment, *models.Invoice, error) {
	txHash = strings.ToLower(strings.TrimSpace(txHash))

	invoice, err := svc.FindInvoice(ctx, invoiceId)
	if err != nil {
		return nil, nil, err
	}
	if invoice == nil {
		return nil, nil, ErrInvoiceNotFound
	}

	// idempotency gate: a hash that was ever judged keeps its verdict forever
	existing, err := svc.FindPaymentByTxHash(ctx, txHash)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		svc.Logger.Infof("Verification replay for tx %s, returning stored verdict %s", txHash, existing.Status)
		return existing, invoice, nil
	}

	tx, err := svc.ChainClient.GetTransaction(ctx, txHash)
	if err != nil {
		if errors.Is(err, chain.ErrNotFound) {
			return nil, nil, ErrTransactionNotFound
		}
		return nil, nil, err
	}

	receipt, err := svc.ChainClient.GetTransactionReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, chain.ErrNotFound) {
			return nil, nil, ErrReceiptNotFound
		}
		return nil, nil, err
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		// no transfer was executed, so the claimed (invoice) amount is recorded
		return svc.recordFailure(ctx, invoice, &models.Payment{
			InvoiceID:    invoice.ID,
			TxHash:       txHash,
			FromAddress:  codec.NormalizeAddress(tx.From),
			ToAddress:    codec.NormalizeAddress(tx.To),
			Amount:       invoice.AmountDue,
			ErrorMessage: "Transaction failed on-chain",
		})
	}

	event := chain.DecodeTransferEvent(receipt.Logs, svc.ChainConfig.TokenContractAddress)
	if event == nil {
		// a successful transaction that moved none of the settlement token is
		// a malformed claim, not a payment attempt worth recording
		return nil, nil, ErrNoTransferEvent
	}

	expectedRecipient := codec.NormalizeAddress(invoice.VendorAddress)
	actualRecipient := codec.NormalizeAddress(event.To)
	if actualRecipient != expectedRecipient {
		return svc.recordFailure(ctx, invoice, &models.Payment{
			InvoiceID:    invoice.ID,
			TxHash:       txHash,
			FromAddress:  codec.NormalizeAddress(tx.From),
			ToAddress:    actualRecipient,
			Amount:       event.Value.String(),
			ErrorMessage: fmt.Sprintf("Wrong recipient: expected %s, got %s", expectedRecipient, actualRecipient),
		})
	}

	amountDue, err := codec.ParseAmount(invoice.AmountDue)
	if err != nil {
		return nil, nil, fmt.Errorf("invoice %s carries an unparseable amount: %w", invoice.ID, err)
	}
	if !codec.IsSufficient(event.Value, amountDue) {
		return svc.recordFailure(ctx, invoice, &models.Payment{
			InvoiceID:    invoice.ID,
			TxHash:       txHash,
			FromAddress:  codec.NormalizeAddress(tx.From),
			ToAddress:    actualRecipient,
			Amount:       event.Value.String(),
			ErrorMessage: fmt.Sprintf("Insufficient amount: expected %s, got %s", amountDue.String(), event.Value.String()),
		})
	}

	payment := &models.Payment{
		InvoiceID:   invoice.ID,
		TxHash:      txHash,
		FromAddress: codec.NormalizeAddress(tx.From),
		ToAddress:   actualRecipient,
		Amount:      event.Value.String(),
		Status:      common.PaymentStatusVerified,
		VerifiedAt:  bun.NullTime{Time: time.Now()},
	}
	stored, created, err := svc.persistPayment(ctx, payment, true)
	if err != nil {
		return nil, nil, err
	}
	if created {
		svc.Logger.Infof("Verified payment: invoice_id:%s tx:%s amount:%s", invoice.ID, txHash, stored.Amount)
		svc.PaymentPubSub.Publish(stored.Status, *stored)
	}
	if stored.Status == common.PaymentStatusVerified {
		invoice.Status = common.InvoiceStatusPaid
	}
	return stored, invoice, nil
}

func (svc *ChainvoiceService) recordFailure(ctx context.Context, invoice *models.Invoice, payment *models.Payment) (*models.Payment, *models.Invoice, error) {
	payment.Status = common.PaymentStatusFailed

	stored, created, err := svc.persistPayment(ctx, payment, false)
	if err != nil {
		return nil, nil, err
	}
	if created {
		svc.Logger.Infof("Failed payment attempt: invoice_id:%s tx:%s reason:%s", invoice.ID, payment.TxHash, payment.ErrorMessage)
		svc.PaymentPubSub.Publish(stored.Status, *stored)
	}
	return stored, invoice, nil
}
