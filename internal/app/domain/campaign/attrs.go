package campaign

import (
	"fmt"
	"strconv"
)

// The external asset store persists a campaign as a flat string-keyed
// attribute bag: every numeric field round-trips through a decimal string
// and every state is an enumerated string. This file is the single point
// where that wire form is decoded into the typed aggregate and where
// "missing required attribute" errors are raised.

// Attribute keys on the campaign asset.
const (
	attrGoal               = "goal"
	attrCreatorWallet      = "creatorWallet"
	attrStatus             = "status"
	attrDurationMonths     = "durationMonths"
	attrProjectStartDate   = "projectStartDate"
	attrBasePrice          = "basePrice"
	attrBondingSlope       = "bondingSlope"
	attrTotalPledges       = "totalPledges"
	attrRefundedPledges    = "refundedPledges"
	attrTotalDeposited     = "totalDeposited"
	attrCurrentlyDeposited = "currentlyDeposited"
	attrPledgesCollection  = "pledgesCollectionAddress"
	attrRewardsCollection  = "rewardsCollectionAddress"
	attrRewardsIssuer      = "rewardsCandyMachineAddress"

	attrPaymentOrderPrefix = "paymentOrder_"
)

// AssetHeader is the descriptive, immutable portion of the asset the
// attribute bag rides on.
type AssetHeader struct {
	Address     string
	Name        string
	Symbol      string
	Description string
}

// Decode parses the flat attribute bag into a typed campaign. Fields
// required by the persisted status must be present; their absence signals a
// malformed campaign and fails fast with ErrMalformedCampaign.
func Decode(header AssetHeader, attrs map[string]string) (Campaign, error) {
	statusRaw, ok := attrs[attrStatus]
	if !ok {
		return Campaign{}, malformedf("missing attribute %q", attrStatus)
	}
	status, err := ParseStatus(statusRaw)
	if err != nil {
		return Campaign{}, err
	}

	c := Campaign{
		Address:     header.Address,
		Name:        header.Name,
		Symbol:      header.Symbol,
		Description: header.Description,
	}

	if c.CreatorWallet, ok = attrs[attrCreatorWallet]; !ok || c.CreatorWallet == "" {
		return Campaign{}, malformedf("missing attribute %q", attrCreatorWallet)
	}

	numbers := []struct {
		key  string
		dest *int64
	}{
		{attrGoal, &c.Goal},
		{attrProjectStartDate, &c.ProjectStartDate},
		{attrBasePrice, &c.BasePrice},
		{attrBondingSlope, &c.BondingSlope},
		{attrTotalPledges, &c.TotalPledges},
		{attrRefundedPledges, &c.RefundedPledges},
		{attrTotalDeposited, &c.TotalDeposited},
		{attrCurrentlyDeposited, &c.CurrentlyDeposited},
	}
	for _, field := range numbers {
		value, err := requireInt(attrs, field.key)
		if err != nil {
			return Campaign{}, err
		}
		*field.dest = value
	}

	duration, err := requireInt(attrs, attrDurationMonths)
	if err != nil {
		return Campaign{}, err
	}
	c.DurationMonths = int(duration)

	c.Detail, err = decodeDetail(status, attrs)
	if err != nil {
		return Campaign{}, err
	}

	if status != StatusDraft {
		computed, err := ComputeSchedule(c.DurationMonths, c.Goal, c.StartDate(), nil)
		if err != nil {
			return Campaign{}, malformedf("schedule: %v", err)
		}
		persisted, err := decodeOrderStatuses(attrs, c.DurationMonths)
		if err != nil {
			return Campaign{}, err
		}
		c.PaymentOrders = MergeOrderStatuses(computed, persisted)
	}

	if err := c.CheckInvariants(); err != nil {
		return Campaign{}, err
	}
	return c, nil
}

func decodeDetail(status Status, attrs map[string]string) (Detail, error) {
	pledges := attrs[attrPledgesCollection]
	rewards := attrs[attrRewardsCollection]
	issuer := attrs[attrRewardsIssuer]

	switch status {
	case StatusDraft:
		return Draft{}, nil
	case StatusActive:
		if pledges == "" {
			return nil, malformedf("active campaign is missing %q", attrPledgesCollection)
		}
		return Active{PledgesCollection: pledges}, nil
	case StatusWorkInProgress:
		if pledges == "" {
			return nil, malformedf("work in progress campaign is missing %q", attrPledgesCollection)
		}
		return WorkInProgress{PledgesCollection: pledges}, nil
	case StatusFinalized:
		if pledges == "" {
			return nil, malformedf("finalized campaign is missing %q", attrPledgesCollection)
		}
		if rewards == "" {
			return nil, malformedf("finalized campaign is missing %q", attrRewardsCollection)
		}
		if issuer == "" {
			return nil, malformedf("finalized campaign is missing %q", attrRewardsIssuer)
		}
		return Finalized{PledgesCollection: pledges, RewardsCollection: rewards, RewardsIssuer: issuer}, nil
	}
	return nil, malformedf("unknown status %q", status)
}

func decodeOrderStatuses(attrs map[string]string, durationMonths int) (map[int]OrderStatus, error) {
	statuses := make(map[int]OrderStatus, durationMonths)
	for number := 1; number <= durationMonths; number++ {
		raw, ok := attrs[orderKey(number)]
		if !ok {
			// Never written yet; the scheduler default applies.
			continue
		}
		switch OrderStatus(raw) {
		case OrderUnclaimed, OrderClaimed:
			statuses[number] = OrderStatus(raw)
		default:
			return nil, malformedf("payment order %d has status %q", number, raw)
		}
	}
	return statuses, nil
}

func requireInt(attrs map[string]string, key string) (int64, error) {
	raw, ok := attrs[key]
	if !ok {
		return 0, malformedf("missing attribute %q", key)
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, malformedf("attribute %q is not an integer: %q", key, raw)
	}
	return value, nil
}

func orderKey(number int) string {
	return fmt.Sprintf("%s%d", attrPaymentOrderPrefix, number)
}

// Encode serialises the campaign back into the flat attribute bag written to
// the asset store. Encode(Decode(attrs)) preserves every domain field.
func (c Campaign) Encode() map[string]string {
	attrs := map[string]string{
		attrStatus:             string(c.Status()),
		attrCreatorWallet:      c.CreatorWallet,
		attrGoal:               strconv.FormatInt(c.Goal, 10),
		attrDurationMonths:     strconv.Itoa(c.DurationMonths),
		attrProjectStartDate:   strconv.FormatInt(c.ProjectStartDate, 10),
		attrBasePrice:          strconv.FormatInt(c.BasePrice, 10),
		attrBondingSlope:       strconv.FormatInt(c.BondingSlope, 10),
		attrTotalPledges:       strconv.FormatInt(c.TotalPledges, 10),
		attrRefundedPledges:    strconv.FormatInt(c.RefundedPledges, 10),
		attrTotalDeposited:     strconv.FormatInt(c.TotalDeposited, 10),
		attrCurrentlyDeposited: strconv.FormatInt(c.CurrentlyDeposited, 10),
	}

	switch d := c.Detail.(type) {
	case Active:
		attrs[attrPledgesCollection] = d.PledgesCollection
	case WorkInProgress:
		attrs[attrPledgesCollection] = d.PledgesCollection
	case Finalized:
		attrs[attrPledgesCollection] = d.PledgesCollection
		attrs[attrRewardsCollection] = d.RewardsCollection
		attrs[attrRewardsIssuer] = d.RewardsIssuer
	}

	for _, order := range c.PaymentOrders {
		attrs[orderKey(order.OrderNumber)] = string(order.Status)
	}
	return attrs
}
