package callback

import "errors"

var (
	// ErrUnauthorized is returned when the channel key does not match.
	ErrUnauthorized = errors.New("invalid callback channel key")

	// ErrAccountInactive is returned for notifications against an
	// inactive or expired virtual account.
	ErrAccountInactive = errors.New("virtual account is not accepting settlements")

	// ErrAmountMismatch is returned when the notification amount's sign
	// disagrees with the virtual account type.
	ErrAmountMismatch = errors.New("notification amount does not match account type")
)
