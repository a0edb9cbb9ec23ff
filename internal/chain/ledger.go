package chain

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

// Receipt identifies a committed ledger transfer.
type Receipt struct {
	Signature string
}

// Transfer moves native currency between accounts. The amount is lamports
// and must not be negative; the arithmetic guards in the domain core run
// before this is ever called.
func (c *Client) Transfer(ctx context.Context, source, destination string, amount int64) (Receipt, error) {
	if amount < 0 {
		return Receipt{}, fmt.Errorf("transfer amount must not be negative, got %d", amount)
	}

	result, err := c.Call(ctx, "transfer", map[string]interface{}{
		"source":      source,
		"destination": destination,
		"amount":      amount,
	})
	if err != nil {
		return Receipt{}, err
	}

	sig := gjson.GetBytes(result, "signature").String()
	if sig == "" {
		return Receipt{}, fmt.Errorf("transfer returned no signature")
	}
	return Receipt{Signature: sig}, nil
}

// EscrowAccount derives the campaign asset's escrow account, the account
// pledged funds sit in until withdrawn or refunded.
func (c *Client) EscrowAccount(ctx context.Context, assetAddress string) (string, error) {
	result, err := c.Call(ctx, "getAssetSigner", map[string]string{"address": assetAddress})
	if err != nil {
		return "", err
	}
	account := gjson.GetBytes(result, "address").String()
	if account == "" {
		return "", fmt.Errorf("getAssetSigner returned no address")
	}
	return account, nil
}
