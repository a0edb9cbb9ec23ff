package campaign

import (
	"fmt"
	"strings"
)

// Transitions are pure: each derives the full next snapshot from the
// pre-transition snapshot and verifies the accounting invariants before
// returning it. Callers commit the result as one unit; a failed external
// write means the computed snapshot was never applied.

// NewDraft validates creation terms and builds a draft campaign.
func NewDraft(address, name, symbol, description, creatorWallet string, goal int64, durationMonths int, projectStartDate, basePrice, bondingSlope int64) (Campaign, error) {
	if strings.TrimSpace(creatorWallet) == "" {
		return Campaign{}, fmt.Errorf("creator wallet is required")
	}
	if goal < 0 {
		return Campaign{}, fmt.Errorf("goal must not be negative, got %d", goal)
	}
	if durationMonths < 1 {
		return Campaign{}, fmt.Errorf("duration must be at least one month, got %d", durationMonths)
	}
	if basePrice < 0 || bondingSlope < 0 {
		return Campaign{}, fmt.Errorf("pricing parameters must not be negative (base %d, slope %d)", basePrice, bondingSlope)
	}

	return Campaign{
		Address:          address,
		Name:             strings.TrimSpace(name),
		Symbol:           strings.TrimSpace(symbol),
		Description:      description,
		CreatorWallet:    creatorWallet,
		Goal:             goal,
		DurationMonths:   durationMonths,
		ProjectStartDate: projectStartDate,
		BasePrice:        basePrice,
		BondingSlope:     bondingSlope,
		Detail:           Draft{},
	}, nil
}

// AuthorizeInitialize verifies the caller may initialize. It runs before
// the pledge collection is allocated so a guard failure costs nothing.
func (c Campaign) AuthorizeInitialize(caller string) error {
	if _, ok := c.Detail.(Draft); !ok {
		return stateError("initialize", StatusDraft, c.Status())
	}
	if caller != c.CreatorWallet {
		return fmt.Errorf("%w: only the campaign creator may initialize", ErrUnauthorized)
	}
	return nil
}

// Initialize moves a draft campaign to active: it attaches the pledge
// collection, zeroes all counters, and lays down a fresh payout schedule.
// Only the creator may initialize.
func (c Campaign) Initialize(caller, pledgesCollection string) (Campaign, error) {
	if _, ok := c.Detail.(Draft); !ok {
		return Campaign{}, stateError("initialize", StatusDraft, c.Status())
	}
	if caller != c.CreatorWallet {
		return Campaign{}, fmt.Errorf("%w: only the campaign creator may initialize", ErrUnauthorized)
	}
	if strings.TrimSpace(pledgesCollection) == "" {
		return Campaign{}, fmt.Errorf("pledges collection address is required")
	}

	orders, err := ComputeSchedule(c.DurationMonths, c.Goal, c.StartDate(), nil)
	if err != nil {
		return Campaign{}, err
	}

	next := c
	next.TotalPledges = 0
	next.RefundedPledges = 0
	next.TotalDeposited = 0
	next.CurrentlyDeposited = 0
	next.PaymentOrders = orders
	next.Detail = Active{PledgesCollection: pledgesCollection}

	if err := next.CheckInvariants(); err != nil {
		return Campaign{}, err
	}
	return next, nil
}

// ApplyPledge prices the next pledge from this snapshot and returns the
// snapshot with counters advanced, together with the price the backer pays.
// Price and mutation come from the same snapshot; no interleaved read.
func (c Campaign) ApplyPledge() (Campaign, int64, error) {
	if _, ok := c.Detail.(Active); !ok {
		return Campaign{}, 0, stateError("pledge", StatusActive, c.Status())
	}

	price := c.PledgePrice()

	next := c
	next.TotalPledges++
	next.TotalDeposited += price
	next.CurrentlyDeposited += price

	if err := next.CheckInvariants(); err != nil {
		return Campaign{}, 0, err
	}
	return next, price, nil
}

// ApplyRefund values one live pledge from this snapshot and returns the
// snapshot with counters advanced, together with the amount returned to the
// backer. totalDeposited is unchanged; that figure only grows.
func (c Campaign) ApplyRefund() (Campaign, int64, error) {
	if _, ok := c.Detail.(Active); !ok {
		return Campaign{}, 0, stateError("refund", StatusActive, c.Status())
	}

	value, err := c.RefundValue()
	if err != nil {
		return Campaign{}, 0, err
	}
	if c.CurrentlyDeposited < value {
		return Campaign{}, 0, fmt.Errorf("%w: refund of %d exceeds deposited balance %d", ErrInsufficientFunds, value, c.CurrentlyDeposited)
	}

	next := c
	next.RefundedPledges++
	next.CurrentlyDeposited -= value

	if err := next.CheckInvariants(); err != nil {
		return Campaign{}, 0, err
	}
	return next, value, nil
}

// AuthorizeWithdraw verifies the creator may start claiming payment orders.
func (c Campaign) AuthorizeWithdraw(caller string) error {
	if _, ok := c.Detail.(Active); !ok {
		return stateError("withdraw", StatusActive, c.Status())
	}
	if caller != c.CreatorWallet {
		return fmt.Errorf("%w: only the campaign creator may withdraw", ErrUnauthorized)
	}
	return nil
}

// FinishWithdraw moves an active campaign to work in progress once the
// creator has claimed funds. There is no transition back to active.
func (c Campaign) FinishWithdraw() (Campaign, error) {
	active, ok := c.Detail.(Active)
	if !ok {
		return Campaign{}, stateError("withdraw", StatusActive, c.Status())
	}

	next := c
	next.Detail = WorkInProgress{PledgesCollection: active.PledgesCollection}

	if err := next.CheckInvariants(); err != nil {
		return Campaign{}, err
	}
	return next, nil
}

// AuthorizeFinalize verifies the caller may finalize. It runs before the
// rewards collection and issuer are allocated.
func (c Campaign) AuthorizeFinalize(caller string) error {
	if _, ok := c.Detail.(WorkInProgress); !ok {
		return stateError("finalize", StatusWorkInProgress, c.Status())
	}
	if caller != c.CreatorWallet {
		return fmt.Errorf("%w: only the campaign creator may finalize", ErrUnauthorized)
	}
	return nil
}

// Finalize attaches the rewards collection and the reward issuance facility,
// completing the lifecycle. Only the creator may finalize, and only from
// work in progress.
func (c Campaign) Finalize(caller, rewardsCollection, rewardsIssuer string) (Campaign, error) {
	wip, ok := c.Detail.(WorkInProgress)
	if !ok {
		return Campaign{}, stateError("finalize", StatusWorkInProgress, c.Status())
	}
	if caller != c.CreatorWallet {
		return Campaign{}, fmt.Errorf("%w: only the campaign creator may finalize", ErrUnauthorized)
	}
	if strings.TrimSpace(rewardsCollection) == "" || strings.TrimSpace(rewardsIssuer) == "" {
		return Campaign{}, fmt.Errorf("rewards collection and issuer addresses are required")
	}

	next := c
	next.Detail = Finalized{
		PledgesCollection: wip.PledgesCollection,
		RewardsCollection: rewardsCollection,
		RewardsIssuer:     rewardsIssuer,
	}

	if err := next.CheckInvariants(); err != nil {
		return Campaign{}, err
	}
	return next, nil
}

// AuthorizeClaim verifies a pledge may be exchanged for a reward. The
// campaign snapshot itself is unchanged by a claim.
func (c Campaign) AuthorizeClaim() (Finalized, error) {
	finalized, ok := c.Detail.(Finalized)
	if !ok {
		return Finalized{}, stateError("claim", StatusFinalized, c.Status())
	}
	return finalized, nil
}
