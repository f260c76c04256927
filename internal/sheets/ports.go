package sheets

import (
	"context"

	"kakeibo/internal/core"
)

// Ports for outbound adapters.
type (
	// BalanceWriter mirrors a ledger month's balance to an external
	// sheet, replacing any previous row for the same month.
	BalanceWriter interface {
		WriteBalance(ctx context.Context, s core.Saving) (rowRef string, err error)
	}
)
