// Package callback applies bank settlement notifications to the ledger.
//
// Notifications are authenticated by a per-channel shared key and applied
// exactly once: the bank-supplied reference number is stored on the payment
// row under a unique index, so a replayed notification lands on the same
// reference and becomes a no-op instead of a double credit.
package callback
