package service

import (
	"context"
	"encoding/json"
	"io"

	"github.com/chainvoice/chainvoice/chain"
	"github.com/chainvoice/chainvoice/common"
	"github.com/chainvoice/chainvoice/db/models"
	"github.com/chainvoice/chainvoice/rabbitmq"
	"github.com/uptrace/bun"
	"github.com/ziflex/lecho/v3"
)

type ChainvoiceService struct {
	Config         *Config
	DB             *bun.DB
	ChainClient    chain.ChainClientWrapper
	ChainConfig    *chain.Config
	Logger         *lecho.Logger
	PaymentPubSub  *Pubsub
	RabbitMQClient rabbitmq.Client
}

// SubscribePayments hands the rabbitmq publisher a pair of channels fed with
// every newly persisted verification verdict.
func (svc *ChainvoiceService) SubscribePayments() (verified chan models.Payment, failed chan models.Payment, err error) {
	verified = make(chan models.Payment)
	failed = make(chan models.Payment)
	_, err = svc.PaymentPubSub.Subscribe(common.PaymentStatusVerified, verified)
	if err != nil {
		return nil, nil, err
	}
	_, err = svc.PaymentPubSub.Subscribe(common.PaymentStatusFailed, failed)
	if err != nil {
		return nil, nil, err
	}
	return verified, failed, nil
}

func (svc *ChainvoiceService) EncodePayment(ctx context.Context, w io.Writer, payment models.Payment) error {
	return json.NewEncoder(w).Encode(payment)
}
