package xrpl

import "context"

// Signer turns an unsigned transaction into a signed blob ready for
// submission. Implementations live outside this module (hardware wallets,
// browser extensions) and may prompt a human, so a call can suspend for an
// arbitrarily long time. Callers cancel via the context instead of applying
// a timeout.
type Signer interface {
	Sign(ctx context.Context, tx Transaction) (blob string, err error)
}
