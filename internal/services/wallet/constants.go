package wallet

// Default configuration values
const (
	DefaultPinAttemptLimit = 3
)
