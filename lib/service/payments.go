package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chainvoice/chainvoice/common"
	"github.com/chainvoice/chainvoice/db/models"
	"github.com/uptrace/bun/driver/pgdriver"
)

func (svc *ChainvoiceService) FindPaymentByTxHash(ctx context.Context, txHash string) (*models.Payment, error) {
	var payment models.Payment

	err := svc.DB.NewSelect().Model(&payment).Where("tx_hash = ?", txHash).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// persistPayment inserts the verdict row and, for a verified payment, marks
// the invoice PAID in the same database transaction. The unique tx_hash
// constraint is the linearization point for concurrent verification of one
// hash: exactly one insert wins, every loser adopts the winner's row instead
// of surfacing the race.
func (svc *ChainvoiceService) persistPayment(ctx context.Context, payment *models.Payment, markPaid bool) (stored *models.Payment, created bool, err error) {
	tx, err := svc.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, false, err
	}

	_, err = tx.NewInsert().Model(payment).Exec(ctx)
	if err != nil {
		tx.Rollback()
		if isDuplicateKeyError(err) {
			existing, lookupErr := svc.FindPaymentByTxHash(ctx, payment.TxHash)
			if lookupErr != nil {
				return nil, false, lookupErr
			}
			if existing == nil {
				// insert lost to a row we then cannot see, give up loudly
				return nil, false, fmt.Errorf("payment for tx %s exists but could not be loaded", payment.TxHash)
			}
			svc.Logger.Infof("Concurrent verification detected for tx %s, adopting stored verdict", payment.TxHash)
			return existing, false, nil
		}
		return nil, false, err
	}

	if markPaid {
		// conditional update keeps DUE -> PAID a one-way, one-time transition
		// while staying a no-op for an invoice that is already PAID
		_, err = tx.NewUpdate().
			Model((*models.Invoice)(nil)).
			Set("status = ?", common.InvoiceStatusPaid).
			Set("updated_at = now()").
			Where("id = ? AND status = ?", payment.InvoiceID, common.InvoiceStatusDue).
			Exec(ctx)
		if err != nil {
			tx.Rollback()
			return nil, false, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, false, err
	}
	return payment, true, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.IntegrityViolation()
	}
	return false
}
