// Package virtualaccount provisions and recycles the bank-facing virtual
// account numbers wallets use for deposits and cardless withdrawals.
//
// A credit VA is a long-lived deposit channel: one per (wallet, bank), and
// asking for a second one is an error. A debit VA is a single-use withdrawal
// channel: provisioning a new one silently replaces any previous debit VA,
// but only while no unexpired withdraw intent is holding the slot.
package virtualaccount
