package campaign

import (
	"errors"
	"fmt"
)

// Error kinds raised by campaign guards. Callers match them with errors.Is;
// every guard fires before any external side effect is attempted.
var (
	// ErrMalformedCampaign indicates a required attribute is missing or
	// unparseable for the campaign's current status.
	ErrMalformedCampaign = errors.New("malformed campaign")

	// ErrInvalidCampaignState indicates an operation was attempted from a
	// status that does not permit it.
	ErrInvalidCampaignState = errors.New("invalid campaign state")

	// ErrUnauthorized indicates the caller does not hold the required role.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidRefundState indicates a refund would transfer a negative or
	// undefined amount (no live pledges on the curve).
	ErrInvalidRefundState = errors.New("invalid refund state")

	// ErrInsufficientFunds indicates a transfer would push a balance below
	// zero or below a required reserve.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrOrderNotClaimable indicates a payment order is not due, already
	// claimed, or not covered by the deposited reserve.
	ErrOrderNotClaimable = errors.New("payment order not claimable")
)

func malformedf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedCampaign, fmt.Sprintf(format, args...))
}

// stateError names the status an operation requires versus the one found.
func stateError(op string, required, got Status) error {
	return fmt.Errorf("%w: %s requires status %q, campaign is %q", ErrInvalidCampaignState, op, required, got)
}
