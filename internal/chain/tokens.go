package chain

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

// CreateCollection creates a token collection and returns its address.
func (c *Client) CreateCollection(ctx context.Context, name, symbol string) (string, error) {
	result, err := c.Call(ctx, "createCollection", map[string]string{
		"name":   name,
		"symbol": symbol,
	})
	if err != nil {
		return "", err
	}
	address := gjson.GetBytes(result, "address").String()
	if address == "" {
		return "", fmt.Errorf("createCollection returned no address")
	}
	return address, nil
}

// Mint issues a token into a collection, owned by the given wallet, and
// returns the token address.
func (c *Client) Mint(ctx context.Context, collection, owner, name string) (string, error) {
	result, err := c.Call(ctx, "mintAsset", map[string]string{
		"collection": collection,
		"owner":      owner,
		"name":       name,
	})
	if err != nil {
		return "", err
	}
	address := gjson.GetBytes(result, "address").String()
	if address == "" {
		return "", fmt.Errorf("mintAsset returned no address")
	}
	return address, nil
}

// Burn destroys a token. The authority must own the token or hold the
// collection authority.
func (c *Client) Burn(ctx context.Context, token, collection, authority string) error {
	_, err := c.Call(ctx, "burnAsset", map[string]string{
		"token":      token,
		"collection": collection,
		"authority":  authority,
	})
	return err
}

// CreateIssuer sets up a reward issuance facility over a collection with a
// fixed number of items, gated on burning a token from the required
// collection. Returns the issuer address.
func (c *Client) CreateIssuer(ctx context.Context, collection string, items int64, burnCollection string) (string, error) {
	if items < 0 {
		return "", fmt.Errorf("issuer items must not be negative, got %d", items)
	}
	result, err := c.Call(ctx, "createIssuer", map[string]interface{}{
		"collection":     collection,
		"items":          items,
		"burnCollection": burnCollection,
	})
	if err != nil {
		return "", err
	}
	address := gjson.GetBytes(result, "address").String()
	if address == "" {
		return "", fmt.Errorf("createIssuer returned no address")
	}
	return address, nil
}

// IssueReward mints one reward from the issuer by burning the given pledge
// token, transferring ownership to the claiming backer. Returns the reward
// token address.
func (c *Client) IssueReward(ctx context.Context, issuer, rewardCollection, pledgeToken, owner string) (string, error) {
	result, err := c.Call(ctx, "issueReward", map[string]string{
		"issuer":     issuer,
		"collection": rewardCollection,
		"burnToken":  pledgeToken,
		"owner":      owner,
	})
	if err != nil {
		return "", err
	}
	address := gjson.GetBytes(result, "address").String()
	if address == "" {
		return "", fmt.Errorf("issueReward returned no address")
	}
	return address, nil
}
