// Package pricing defines the port to the external spot-price oracle.
package pricing

import (
	"context"

	"github.com/shopspring/decimal"
)

// Oracle provides the current spot price of a named asset in a reference
// currency. There is no historical variant: valuation is always "now".
type Oracle interface {
	SpotPrice(ctx context.Context, symbol, vsCurrency string) (decimal.Decimal, error)
}
