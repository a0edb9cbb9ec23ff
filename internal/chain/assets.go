package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrAssetNotFound is returned when the store holds no asset at an address.
var ErrAssetNotFound = errors.New("asset not found")

// rpc error code the store uses for missing assets.
const codeAssetNotFound = -32004

// Asset is an on-chain asset together with its flat attribute bag.
type Asset struct {
	Address     string
	Name        string
	Symbol      string
	Description string
	Owner       string
	Collection  string
	Attributes  map[string]string
}

// AssetSpec describes a new asset to create.
type AssetSpec struct {
	Name        string            `json:"name"`
	Symbol      string            `json:"symbol"`
	Description string            `json:"description"`
	Owner       string            `json:"owner,omitempty"`
	Collection  string            `json:"collection,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// FetchAsset reads an asset snapshot with its metadata and attributes.
func (c *Client) FetchAsset(ctx context.Context, address string) (Asset, error) {
	result, err := c.Call(ctx, "getAsset", map[string]string{"address": address})
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == codeAssetNotFound {
			return Asset{}, fmt.Errorf("%w: %s", ErrAssetNotFound, address)
		}
		return Asset{}, err
	}
	return parseAsset(result), nil
}

// CreateAsset mints a new asset and returns its address.
func (c *Client) CreateAsset(ctx context.Context, spec AssetSpec) (string, error) {
	result, err := c.Call(ctx, "createAsset", spec)
	if err != nil {
		return "", err
	}
	address := gjson.GetBytes(result, "address").String()
	if address == "" {
		return "", fmt.Errorf("createAsset returned no address")
	}
	return address, nil
}

// UpdateAttributes writes the given key-value pairs to the asset's attribute
// bag. The write succeeds only if the asset still matches the snapshot the
// caller read (optimistic concurrency on the store side).
func (c *Client) UpdateAttributes(ctx context.Context, address string, attrs map[string]string) error {
	_, err := c.Call(ctx, "updateAssetAttributes", map[string]interface{}{
		"address":    address,
		"attributes": attrs,
	})
	return err
}

// ListCollectionAssets returns the live assets in a collection, optionally
// filtered by owner.
func (c *Client) ListCollectionAssets(ctx context.Context, collection, owner string) ([]Asset, error) {
	params := map[string]string{"collection": collection}
	if owner != "" {
		params["owner"] = owner
	}
	result, err := c.Call(ctx, "listCollectionAssets", params)
	if err != nil {
		return nil, err
	}

	var assets []Asset
	gjson.GetBytes(result, "assets").ForEach(func(_, value gjson.Result) bool {
		assets = append(assets, parseAssetResult(value))
		return true
	})
	return assets, nil
}

func parseAsset(raw []byte) Asset {
	return parseAssetResult(gjson.ParseBytes(raw))
}

func parseAssetResult(value gjson.Result) Asset {
	asset := Asset{
		Address:     value.Get("address").String(),
		Name:        value.Get("name").String(),
		Symbol:      value.Get("symbol").String(),
		Description: value.Get("description").String(),
		Owner:       value.Get("owner").String(),
		Collection:  value.Get("collection").String(),
		Attributes:  make(map[string]string),
	}
	value.Get("attributes").ForEach(func(key, val gjson.Result) bool {
		asset.Attributes[key.String()] = val.String()
		return true
	})
	return asset
}
