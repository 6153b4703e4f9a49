package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {

		if db.Dialect().Name().String() != "pg" {
			fmt.Printf("\033[1;31m%s\033[0m", "You are not using PostgreSQL. DB level checks can not be enabled!\n")
			return nil
		}
		sql := `
			-- invoice and payment statuses are closed sets
				alter table invoices
				ADD CONSTRAINT check_invoice_status
				CHECK (status IN ('DUE', 'PAID', 'INVALID'));

				alter table payments
				ADD CONSTRAINT check_payment_status
				CHECK (status IN ('VERIFIED', 'FAILED'));

			-- a failed payment must say why, a verified one must say when
				alter table payments
				ADD CONSTRAINT check_failed_has_error
				CHECK (status != 'FAILED' OR error_message IS NOT NULL);

				alter table payments
				ADD CONSTRAINT check_verified_has_timestamp
				CHECK (status != 'VERIFIED' OR verified_at IS NOT NULL);

			-- payments reference the invoice they were claimed against
				alter table payments
				ADD CONSTRAINT fk_payments_invoice
				FOREIGN KEY (invoice_id) REFERENCES invoices (id);
		`
		if _, err := db.Exec(sql); err != nil {
			return err
		}
		return nil
	}, nil)
}
