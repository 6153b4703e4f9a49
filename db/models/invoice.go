package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Invoice : Invoice Model
//
// AmountDue is kept as a decimal string of token base units. Base units of a
// 6-decimal token overflow float64 integer precision for large invoices, so
// the value is only ever compared through big.Int.
type Invoice struct {
	ID            string       `json:"id" bun:",pk"`
	Description   string       `json:"description" bun:",nullzero"`
	VendorAddress string       `json:"vendor_address" bun:",notnull" validate:"required"`
	AmountDue     string       `json:"amount_due" bun:",notnull" validate:"required"`
	Status        string       `json:"status" bun:",notnull,default:'DUE'"`
	CreatedAt     time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt     bun.NullTime `json:"updated_at"`
}

func (i *Invoice) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		i.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Invoice)(nil)
