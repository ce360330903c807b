// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

package ledger

import "errors"

// Each failure of the ledger maps to exactly one of these kinds.
// Callers branch on them with errors.Is.
var (
	ErrSupplyExhausted            = errors.New("supply exhausted")
	ErrIncorrectPayment           = errors.New("incorrect payment")
	ErrPayoutFailed               = errors.New("payout failed")
	ErrUnknownToken               = errors.New("unknown token")
	ErrInvalidConfiguration       = errors.New("invalid configuration")
	ErrUnauthorizedDirectTransfer = errors.New("unauthorized direct transfer")
)

// Kind returns the short name of the ledger error wrapped by err,
// or an empty string if err is not a ledger error.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrSupplyExhausted):
		return "SupplyExhausted"
	case errors.Is(err, ErrIncorrectPayment):
		return "IncorrectPayment"
	case errors.Is(err, ErrPayoutFailed):
		return "PayoutFailed"
	case errors.Is(err, ErrUnknownToken):
		return "UnknownToken"
	case errors.Is(err, ErrInvalidConfiguration):
		return "InvalidConfiguration"
	case errors.Is(err, ErrUnauthorizedDirectTransfer):
		return "UnauthorizedDirectTransfer"
	}
	return ""
}
