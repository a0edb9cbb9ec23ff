package campaign

import "fmt"

// PledgePrice is the cost of the next pledge on the linear bonding curve:
// basePrice + netSupply * bondingSlope. The price strictly increases with
// each net pledge issued.
func (c Campaign) PledgePrice() int64 {
	return c.BasePrice + c.NetSupply()*c.BondingSlope
}

// RefundValue is the amount returned for refunding one live pledge:
// basePrice + (netSupply-1) * bondingSlope, i.e. exactly what the most
// recently issued unit cost, preserving curve symmetry. With no live pledges
// the expression would go negative, so the refund is rejected instead.
func (c Campaign) RefundValue() (int64, error) {
	supply := c.NetSupply()
	if supply <= 0 {
		return 0, fmt.Errorf("%w: no live pledges to refund", ErrInvalidRefundState)
	}
	value := c.BasePrice + (supply-1)*c.BondingSlope
	if value < 0 {
		return 0, fmt.Errorf("%w: refund value %d is negative", ErrInvalidRefundState, value)
	}
	return value, nil
}
