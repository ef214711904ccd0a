package money

import (
	"errors"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultFeePercent is the platform cut applied to every settled payment.
const DefaultFeePercent = 10.0

var (
	ErrInvalidAmount  = errors.New("amount must not be negative")
	ErrInvalidFeeRate = errors.New("fee rate must be between 0 and 100 percent")
)

// ComputeFee splits a gross amount in centavos into the platform fee and the
// net payout owed to the provider. The rate is converted to basis points and
// the fee rounded half-up in integer arithmetic, so fee+net == amount holds
// for every valid input.
func ComputeFee(amount int64, feePercent float64) (fee, net int64, err error) {
	if amount < 0 {
		return 0, 0, ErrInvalidAmount
	}

	if feePercent < 0 || feePercent > 100 {
		return 0, 0, ErrInvalidFeeRate
	}

	bps := int64(math.Round(feePercent * 100))
	fee = (amount*bps + 5000) / 10000
	net = amount - fee

	return fee, net, nil
}

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL renders an amount in centavos as a pt-BR currency string,
// e.g. 123456 -> "R$ 1.234,56".
func FormatBRL(cents int64) string {
	return brPrinter.Sprintf("R$ %.2f", float64(cents)/100.0)
}
