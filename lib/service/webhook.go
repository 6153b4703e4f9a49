package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/chainvoice/chainvoice/common"
	"github.com/chainvoice/chainvoice/db/models"
)

func (svc *ChainvoiceService) StartWebhookSubscription(ctx context.Context, url string) {

	svc.Logger.Infof("Starting webhook subscription with webhook url %s", url)
	verifiedPayments := make(chan models.Payment)
	failedPayments := make(chan models.Payment)
	if _, err := svc.PaymentPubSub.Subscribe(common.PaymentStatusVerified, verifiedPayments); err != nil {
		svc.Logger.Error(err)
		return
	}
	if _, err := svc.PaymentPubSub.Subscribe(common.PaymentStatusFailed, failedPayments); err != nil {
		svc.Logger.Error(err)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case verified := <-verifiedPayments:
			svc.postToWebhook(verified, url)
		case failed := <-failedPayments:
			svc.postToWebhook(failed, url)
		}
	}
}

func (svc *ChainvoiceService) postToWebhook(payment models.Payment, url string) {

	payload := new(bytes.Buffer)
	err := json.NewEncoder(payload).Encode(payment)
	if err != nil {
		svc.Logger.Error(err)
		return
	}

	resp, err := http.Post(url, "application/json", payload)
	if err != nil {
		svc.Logger.Error(err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			svc.Logger.Error(err)
		}
		svc.Logger.Errorf("Webhook status code was %d, body: %s", resp.StatusCode, msg)
	}
}
