package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Payment : Payment Model
//
// One row per verification attempt for one transaction hash. Rows are append
// only: they are never updated or deleted after creation. The unique tx_hash
// constraint is what makes concurrent verification of the same hash safe.
type Payment struct {
	ID           int64        `json:"id" bun:",pk,autoincrement"`
	InvoiceID    string       `json:"invoice_id" bun:",notnull"`
	Invoice      *Invoice     `json:"-" bun:"rel:belongs-to,join:invoice_id=id"`
	TxHash       string       `json:"tx_hash" bun:",notnull,unique"`
	FromAddress  string       `json:"from_address" bun:",nullzero"`
	ToAddress    string       `json:"to_address" bun:",nullzero"`
	Amount       string       `json:"amount" bun:",notnull"`
	Status       string       `json:"status" bun:",notnull"`
	ErrorMessage string       `json:"error_message,omitempty" bun:",nullzero"`
	VerifiedAt   bun.NullTime `json:"verified_at"`
	CreatedAt    time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
}
