package chain

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	RPCUrl               string `envconfig:"CHAIN_RPC_URL" required:"true"`
	TokenContractAddress string `envconfig:"TOKEN_CONTRACT_ADDRESS" required:"true"`
	ReceiptWaitTimeout   int    `envconfig:"RECEIPT_WAIT_TIMEOUT" default:"60"` // in seconds
	ReceiptPollInterval  int    `envconfig:"RECEIPT_POLL_INTERVAL" default:"2"` // in seconds
}

func LoadConfig() (c *Config, err error) {
	c = &Config{}
	err = envconfig.Process("", c)
	if err != nil {
		return nil, err
	}
	return c, nil
}
