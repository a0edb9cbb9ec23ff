// Package campaign holds the crowdfunding campaign aggregate: its lifecycle
// status, bonding-curve pricing terms, payout schedule, and the accounting
// counters that must stay consistent as pledges, refunds, and withdrawals
// interleave. All monetary values are integer lamports; all timestamps are
// integer seconds since epoch.
package campaign

import "time"

// Status is the campaign lifecycle status. Transitions are strictly forward:
// draft -> active -> work in progress -> finalized.
type Status string

const (
	StatusDraft          Status = "draft"
	StatusActive         Status = "active"
	StatusWorkInProgress Status = "work in progress"
	StatusFinalized      Status = "finalized"
)

// ParseStatus validates a wire status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusActive, StatusWorkInProgress, StatusFinalized:
		return Status(s), nil
	}
	return "", malformedf("unknown status %q", s)
}

// Detail carries the fields that only exist once a campaign reaches a given
// status. Exactly one variant is valid per status; constructing a campaign
// with a variant missing a required address fails during decoding.
type Detail interface {
	Status() Status
}

// Draft is the detail of a freshly created campaign.
type Draft struct{}

// Active is the detail of a campaign accepting pledges.
type Active struct {
	PledgesCollection string
}

// WorkInProgress is the detail of a campaign whose creator has withdrawn and
// paused further pledges.
type WorkInProgress struct {
	PledgesCollection string
}

// Finalized is the detail of a campaign whose rewards are set up and
// claimable.
type Finalized struct {
	PledgesCollection string
	RewardsCollection string
	RewardsIssuer     string
}

func (Draft) Status() Status          { return StatusDraft }
func (Active) Status() Status         { return StatusActive }
func (WorkInProgress) Status() Status { return StatusWorkInProgress }
func (Finalized) Status() Status      { return StatusFinalized }

// OrderStatus is the claim state of one payment order. It moves one way:
// unclaimed -> claimed.
type OrderStatus string

const (
	OrderUnclaimed OrderStatus = "unclaimed"
	OrderClaimed   OrderStatus = "claimed"
)

// PaymentOrder is one scheduled monthly payout obligation owed to the
// creator.
type PaymentOrder struct {
	OrderNumber  int // 1-based, unique per campaign
	DueTimestamp int64
	Amount       int64
	Status       OrderStatus
}

// Campaign is the aggregate root. The address is owned by the external asset
// store; the domain treats it as an immutable key.
type Campaign struct {
	Address       string
	Name          string
	Symbol        string
	Description   string
	CreatorWallet string

	Goal             int64
	DurationMonths   int
	ProjectStartDate int64

	BasePrice    int64
	BondingSlope int64

	TotalPledges    int64
	RefundedPledges int64

	TotalDeposited     int64
	CurrentlyDeposited int64

	PaymentOrders []PaymentOrder

	Detail Detail
}

// Status returns the lifecycle status derived from the detail variant.
func (c Campaign) Status() Status {
	if c.Detail == nil {
		return StatusDraft
	}
	return c.Detail.Status()
}

// NetSupply is the count of currently live pledges.
func (c Campaign) NetSupply() int64 {
	return c.TotalPledges - c.RefundedPledges
}

// MonthlyAmount is the integer monthly payout. The remainder from the
// division is never separately accounted; it stays in the campaign balance.
func (c Campaign) MonthlyAmount() int64 {
	if c.DurationMonths <= 0 {
		return 0
	}
	return c.Goal / int64(c.DurationMonths)
}

// PledgesCollection returns the pledge collection address for any status
// that carries one.
func (c Campaign) PledgesCollection() (string, bool) {
	switch d := c.Detail.(type) {
	case Active:
		return d.PledgesCollection, true
	case WorkInProgress:
		return d.PledgesCollection, true
	case Finalized:
		return d.PledgesCollection, true
	}
	return "", false
}

// StartDate returns the project start as a UTC time.
func (c Campaign) StartDate() time.Time {
	return time.Unix(c.ProjectStartDate, 0).UTC()
}

// CheckInvariants verifies the accounting relationships that must hold after
// every committed operation. Invariant 3 (live token count) requires the
// external collection and is checked by the reconciler instead.
func (c Campaign) CheckInvariants() error {
	if c.RefundedPledges < 0 || c.TotalPledges < 0 {
		return malformedf("negative pledge counters (%d/%d)", c.RefundedPledges, c.TotalPledges)
	}
	if c.RefundedPledges > c.TotalPledges {
		return malformedf("refundedPledges %d exceeds totalPledges %d", c.RefundedPledges, c.TotalPledges)
	}
	if c.CurrentlyDeposited < 0 || c.TotalDeposited < 0 {
		return malformedf("negative deposit counters (%d/%d)", c.CurrentlyDeposited, c.TotalDeposited)
	}
	if c.CurrentlyDeposited > c.TotalDeposited {
		return malformedf("currentlyDeposited %d exceeds totalDeposited %d", c.CurrentlyDeposited, c.TotalDeposited)
	}
	if c.Status() != StatusDraft {
		if len(c.PaymentOrders) != c.DurationMonths {
			return malformedf("expected %d payment orders, found %d", c.DurationMonths, len(c.PaymentOrders))
		}
		for i, order := range c.PaymentOrders {
			if order.OrderNumber != i+1 {
				return malformedf("payment order at index %d has number %d", i, order.OrderNumber)
			}
			if order.Status != OrderUnclaimed && order.Status != OrderClaimed {
				return malformedf("payment order %d has status %q", order.OrderNumber, order.Status)
			}
		}
	}
	return nil
}
