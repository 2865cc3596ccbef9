// Package rewards computes citizen token balances and partner discount
// redemptions.
package rewards

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Partner is the business that honours the discount codes.
const Partner = "Tramiweb"

// PerReport is the number of tokens earned for each submitted report.
var PerReport = decimal.NewFromInt(5)

var (
	ErrUnknownOffer       = errors.New("unknown offer")
	ErrInsufficientTokens = errors.New("insufficient tokens")
)

// Offer is a discount that can be bought with tokens.
type Offer struct {
	Code    string          `json:"code"`
	Percent decimal.Decimal `json:"percent"`
	Cost    decimal.Decimal `json:"cost"`
	Partner string          `json:"partner"`
}

var offers = []Offer{
	{Code: "TW10", Percent: decimal.NewFromInt(10), Cost: decimal.NewFromInt(100), Partner: Partner},
	{Code: "TW15", Percent: decimal.NewFromInt(15), Cost: decimal.NewFromInt(130), Partner: Partner},
	{Code: "TW20", Percent: decimal.NewFromInt(20), Cost: decimal.NewFromInt(170), Partner: Partner},
}

// Offers lists the available discounts, cheapest first.
func Offers() []Offer {
	out := make([]Offer, len(offers))
	copy(out, offers)
	return out
}

// Balance is the token total for a number of submitted reports.
func Balance(reports int) decimal.Decimal {
	if reports <= 0 {
		return decimal.Zero
	}
	return PerReport.Mul(decimal.NewFromInt(int64(reports)))
}

// InsufficientError carries the offer the balance fell short of.
type InsufficientError struct {
	Offer   Offer
	Balance decimal.Decimal
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("Necesitas %s tokens para canjear %s%%.", e.Offer.Cost.String(), e.Offer.Percent.String())
}

func (e *InsufficientError) Unwrap() error { return ErrInsufficientTokens }

// Redemption is the result of a successful redeem. Balances are not debited;
// Remaining is what would be left after the purchase.
type Redemption struct {
	Offer     Offer           `json:"offer"`
	Code      string          `json:"code"`
	Remaining decimal.Decimal `json:"remaining"`
	Message   string          `json:"message"`
}

// Redeem checks that balance covers the offer identified by code.
func Redeem(balance decimal.Decimal, code string) (Redemption, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, o := range offers {
		if o.Code != code {
			continue
		}
		if balance.LessThan(o.Cost) {
			return Redemption{}, &InsufficientError{Offer: o, Balance: balance}
		}
		return Redemption{
			Offer:     o,
			Code:      o.Code,
			Remaining: balance.Sub(o.Cost),
			Message:   fmt.Sprintf("Has canjeado %s%%. Código: %s", o.Percent.String(), o.Code),
		}, nil
	}
	return Redemption{}, fmt.Errorf("%w: %s", ErrUnknownOffer, code)
}
