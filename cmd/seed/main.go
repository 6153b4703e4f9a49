package main

import (
	"context"
	"fmt"
	"log"

	"github.com/chainvoice/chainvoice/db"
	"github.com/chainvoice/chainvoice/db/migrations"
	"github.com/chainvoice/chainvoice/lib/logging"
	"github.com/chainvoice/chainvoice/lib/service"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/uptrace/bun/migrate"
)

// Seeds the database with a few open invoices so a fresh deployment has
// something to verify payments against.
func main() {
	c := &service.Config{}

	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("Failed to load .env file")
	}
	err = envconfig.Process("", c)
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}

	logger := logging.Logger(c.LogFilePath)

	dbConn, err := db.Open(c)
	if err != nil {
		logger.Fatalf("Error initializing db connection: %v", err)
	}

	ctx := context.Background()
	migrator := migrate.NewMigrator(dbConn, migrations.Migrations)
	err = migrator.Init(ctx)
	if err != nil {
		logger.Fatalf("Error initializing db migrator: %v", err)
	}
	_, err = migrator.Migrate(ctx)
	if err != nil {
		logger.Fatalf("Error migrating database: %v", err)
	}

	svc := &service.ChainvoiceService{
		Config: c,
		DB:     dbConn,
		Logger: logger,
	}

	seeds := []struct {
		vendorAddress string
		amountDue     string
		description   string
	}{
		{"0x70997970C51812dc3A010C7d01b50e0d17dc79C8", "10000000", "Consulting retainer"},
		{"0x70997970C51812dc3A010C7d01b50e0d17dc79C8", "2500000", "Hardware order 4421"},
		{"0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC", "199990000", "Annual license renewal"},
	}

	for _, seed := range seeds {
		invoice, err := svc.AddInvoice(ctx, seed.vendorAddress, seed.amountDue, seed.description)
		if err != nil {
			logger.Fatalf("Error seeding invoice: %v", err)
		}
		logger.Infof("Created invoice %s (%s due to %s)", invoice.ID, invoice.AmountDue, invoice.VendorAddress)
	}
}
