package store

import (
	"context"

	id "curio/pkg/domain"
)

// Store holds per-account withdrawable balances plus the payout journal.
// Credits are the final effect of every mutating ledger operation: sale
// proceeds, auction proceeds, refunds, and overpayment change all land here.
type Store interface {
	// Credit adds amount to the account's withdrawable balance and returns
	// the new balance.
	Credit(ctx context.Context, account id.AccountID, amount uint64, reason string) (uint64, error)

	// BalanceOf returns the account's withdrawable balance; zero for unknown
	// accounts.
	BalanceOf(ctx context.Context, account id.AccountID) (uint64, error)
}
