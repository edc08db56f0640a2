package env

import (
	"errors"
	"os"
	"time"

	"xbit_backend/internal/config"
)

const (
	ledgerPrivateKeyEnvName  = "LEDGER_PRIVATE_KEY"
	ledgerReceiptPollEnvName = "LEDGER_RECEIPT_POLL_INTERVAL"
	ledgerStatusRateEnvName  = "LEDGER_STATUS_RPS"
	ledgerStatusBurstEnvName = "LEDGER_STATUS_BURST"
)

type ledgerConfig struct {
	privateKey  string
	receiptPoll time.Duration
	statusRate  float64
	statusBurst int
}

func NewLedgerConfig() (config.LedgerConfig, error) {
	key := os.Getenv(ledgerPrivateKeyEnvName)
	if len(key) == 0 {
		return nil, errors.New("ledger private key not found")
	}

	receiptPoll, err := durationOr(ledgerReceiptPollEnvName, time.Second)
	if err != nil {
		return nil, err
	}
	rate, err := floatOr(ledgerStatusRateEnvName, 20)
	if err != nil {
		return nil, err
	}
	burst, err := intOr(ledgerStatusBurstEnvName, 10)
	if err != nil {
		return nil, err
	}

	return &ledgerConfig{
		privateKey:  key,
		receiptPoll: receiptPoll,
		statusRate:  rate,
		statusBurst: burst,
	}, nil
}

func (cfg *ledgerConfig) PrivateKey() string {
	return cfg.privateKey
}

func (cfg *ledgerConfig) ReceiptPollInterval() time.Duration {
	return cfg.receiptPoll
}

func (cfg *ledgerConfig) StatusQueriesPerSecond() float64 {
	return cfg.statusRate
}

func (cfg *ledgerConfig) StatusBurst() int {
	return cfg.statusBurst
}
