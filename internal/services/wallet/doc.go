/*
Package wallet resolves and validates the actors of every money-moving
operation before any mutation is attempted.

It owns wallet provisioning, PIN verification with persisted lockout, and
destination validation. It never mutates balances; that is the ledger
package's job.

Usage:

	svc := wallet.NewService(repo, cacheSvc, wallet.Config{PinAttemptLimit: 3}, nil)

	w, err := svc.Resolve(ctx, walletID)
	if err := svc.Authenticate(ctx, w, pin); err != nil { ... }
	dest, err := svc.ResolveDestination(ctx, destID, w)

Error Handling:

  - ErrWalletNotFound: the wallet does not exist
  - ErrWalletLocked: the wallet rejects operations until unlocked
  - ErrIncorrectPin: PIN mismatch below the lockout threshold
  - ErrMaxPinAttempts: this failure crossed the threshold and locked the wallet
  - ErrSameWallet: destination equals source
*/
package wallet
