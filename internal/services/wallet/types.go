package wallet

import "github.com/shopspring/decimal"

// Config holds configuration for wallet operations.
type Config struct {
	// PinAttemptLimit is the number of consecutive failed PIN checks that
	// locks the wallet.
	PinAttemptLimit int
}

// MetricsCollector defines the interface for collecting wallet metrics.
type MetricsCollector interface {
	RecordOperationResult(operation, result string)
	RecordError(operation, errType string)
	RecordTransaction(txType string, amount decimal.Decimal)
}
