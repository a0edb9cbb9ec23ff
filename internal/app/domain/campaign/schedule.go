package campaign

import (
	"fmt"
	"time"
)

// ComputeSchedule derives the fixed sequence of monthly payout obligations
// from the campaign terms. It is a deterministic function of its inputs:
// calling it twice with the same arguments and no carry-over yields identical
// results. If existing orders are supplied, their claim statuses are carried
// over by order number so a claimed order is never re-offered as unclaimed.
func ComputeSchedule(durationMonths int, goal int64, startDate time.Time, existing []PaymentOrder) ([]PaymentOrder, error) {
	if durationMonths < 1 {
		return nil, fmt.Errorf("duration must be at least one month, got %d", durationMonths)
	}
	if goal < 0 {
		return nil, fmt.Errorf("goal must not be negative, got %d", goal)
	}

	monthly := goal / int64(durationMonths)
	targetDay := startDate.Day()

	byNumber := make(map[int]OrderStatus, len(existing))
	for _, order := range existing {
		byNumber[order.OrderNumber] = order.Status
	}

	orders := make([]PaymentOrder, 0, durationMonths)
	for i := 0; i < durationMonths; i++ {
		due := addMonthsClamped(startDate, i, targetDay)

		status := OrderUnclaimed
		if carried, ok := byNumber[i+1]; ok {
			status = carried
		}

		orders = append(orders, PaymentOrder{
			OrderNumber:  i + 1,
			DueTimestamp: due.Unix(),
			Amount:       monthly,
			Status:       status,
		})
	}
	return orders, nil
}

// addMonthsClamped adds whole months to t, clamping the day-of-month to the
// target month's length (Jan 31 + 1 month lands on Feb 28/29, not Mar 2/3).
func addMonthsClamped(t time.Time, months, targetDay int) time.Time {
	year, month, _ := t.Date()
	hour, minute, second := t.Clock()

	first := time.Date(year, month+time.Month(months), 1, hour, minute, second, t.Nanosecond(), t.Location())

	day := targetDay
	if max := daysInMonth(first.Year(), first.Month()); day > max {
		day = max
	}
	return first.AddDate(0, 0, day-1)
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MergeOrderStatuses overlays persisted per-order statuses onto a freshly
// computed schedule. A claimed status in storage always wins; the two views
// must never silently diverge.
func MergeOrderStatuses(computed []PaymentOrder, persisted map[int]OrderStatus) []PaymentOrder {
	merged := make([]PaymentOrder, len(computed))
	copy(merged, computed)
	for i := range merged {
		if status, ok := persisted[merged[i].OrderNumber]; ok && status == OrderClaimed {
			merged[i].Status = OrderClaimed
		}
	}
	return merged
}

// ClaimableOrders returns the orders the creator may claim now: unclaimed,
// due, and covered by the currently deposited balance taking the preceding
// claimable orders into account.
func (c Campaign) ClaimableOrders(now time.Time) []PaymentOrder {
	var due []PaymentOrder
	remaining := c.CurrentlyDeposited
	for _, order := range c.PaymentOrders {
		if order.Status != OrderUnclaimed || order.DueTimestamp > now.Unix() {
			continue
		}
		if remaining < order.Amount {
			break
		}
		remaining -= order.Amount
		due = append(due, order)
	}
	return due
}

// ClaimOrder debits the deposited balance by the order amount and flips
// exactly one order to claimed. It never touches totalDeposited; that figure
// only grows from pledges.
func (c Campaign) ClaimOrder(orderNumber int, now time.Time) (Campaign, PaymentOrder, error) {
	idx := -1
	for i, order := range c.PaymentOrders {
		if order.OrderNumber == orderNumber {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Campaign{}, PaymentOrder{}, fmt.Errorf("%w: order %d does not exist", ErrOrderNotClaimable, orderNumber)
	}

	order := c.PaymentOrders[idx]
	if order.Status != OrderUnclaimed {
		return Campaign{}, PaymentOrder{}, fmt.Errorf("%w: order %d already claimed", ErrOrderNotClaimable, orderNumber)
	}
	if order.DueTimestamp > now.Unix() {
		return Campaign{}, PaymentOrder{}, fmt.Errorf("%w: order %d not due until %d", ErrOrderNotClaimable, orderNumber, order.DueTimestamp)
	}
	if c.CurrentlyDeposited < order.Amount {
		return Campaign{}, PaymentOrder{}, fmt.Errorf("%w: order %d needs %d, deposited %d", ErrOrderNotClaimable, orderNumber, order.Amount, c.CurrentlyDeposited)
	}

	next := c
	next.PaymentOrders = make([]PaymentOrder, len(c.PaymentOrders))
	copy(next.PaymentOrders, c.PaymentOrders)
	next.PaymentOrders[idx].Status = OrderClaimed
	next.CurrentlyDeposited -= order.Amount

	if err := next.CheckInvariants(); err != nil {
		return Campaign{}, PaymentOrder{}, err
	}
	claimed := next.PaymentOrders[idx]
	return next, claimed, nil
}
