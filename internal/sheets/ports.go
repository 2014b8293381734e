package sheets

import (
	"context"

	"risparmio/internal/core"
)

// TransactionWriter is the outbound port for spreadsheet export. The
// returned rowRef identifies where the row landed, for logging.
type TransactionWriter interface {
	Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
}
