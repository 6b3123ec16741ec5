package blockchain

import "github.com/pkg/errors"

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 12/02/2026
 * Time: 09:55
 */

// Error kinds surfaced by the node core. Callers discriminate with errors.Is;
// everything else wraps one of these with context.
var (
	// ErrStoreUnavailable covers failures opening or committing to the
	// embedded key-value store. Fatal to the caller.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrSerialization covers gob encode/decode failures for blocks,
	// transactions and UTXO entries.
	ErrSerialization = errors.New("serialization error")

	// ErrUnknownPriorTx is returned when signing or verification cannot
	// resolve a referenced previous transaction anywhere on the chain.
	ErrUnknownPriorTx = errors.New("previous transaction not found")

	// ErrInsufficientFunds is returned when the spendable outputs locked to
	// a sender do not cover the requested amount.
	ErrInsufficientFunds = errors.New("not enough funds")

	// ErrInvalidTransaction marks a transaction whose signatures do not
	// verify, or that references outputs that cannot be resolved.
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrBlockNotFound is returned by lookups for a hash the store has
	// never seen.
	ErrBlockNotFound = errors.New("block not found")
)
