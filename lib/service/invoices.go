package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/chainvoice/chainvoice/common"
	"github.com/chainvoice/chainvoice/db/models"
	"github.com/chainvoice/chainvoice/lib/codec"
	"github.com/google/uuid"
)

func (svc *ChainvoiceService) FindInvoice(ctx context.Context, invoiceId string) (*models.Invoice, error) {
	var invoice models.Invoice

	err := svc.DB.NewSelect().Model(&invoice).Where("invoice.id = ?", invoiceId).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (svc *ChainvoiceService) Invoices(ctx context.Context) ([]models.Invoice, error) {
	invoices := []models.Invoice{}

	err := svc.DB.NewSelect().Model(&invoices).Order("created_at DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (svc *ChainvoiceService) InvoicePayments(ctx context.Context, invoiceId string) ([]models.Payment, error) {
	payments := []models.Payment{}

	err := svc.DB.NewSelect().Model(&payments).Where("invoice_id = ?", invoiceId).Order("created_at DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// AddInvoice creates a DUE invoice. Authoring is operational glue around the
// verification engine; the engine itself is the only thing that ever moves an
// invoice out of DUE.
func (svc *ChainvoiceService) AddInvoice(ctx context.Context, vendorAddress, amountDue, description string) (*models.Invoice, error) {
	if _, err := codec.ParseAmount(amountDue); err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		ID:            uuid.NewString(),
		Description:   description,
		VendorAddress: codec.NormalizeAddress(vendorAddress),
		AmountDue:     amountDue,
		Status:        common.InvoiceStatusDue,
	}
	_, err := svc.DB.NewInsert().Model(invoice).Exec(ctx)
	if err != nil {
		return nil, err
	}
	svc.Logger.Infof("Created invoice: invoice_id:%s vendor:%s amount_due:%s", invoice.ID, invoice.VendorAddress, invoice.AmountDue)
	return invoice, nil
}
