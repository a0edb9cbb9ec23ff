package chain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// rpcHandler builds a JSON-RPC endpoint answering from a method table.
func rpcHandler(t *testing.T, responses map[string]string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req RPCRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		result, ok := responses[req.Method]
		if !ok {
			json.NewEncoder(w).Encode(RPCResponse{
				JSONRPC: "2.0",
				Error:   &RPCError{Code: codeAssetNotFound, Message: "no such asset"},
				ID:      req.ID,
			})
			return
		}
		json.NewEncoder(w).Encode(RPCResponse{
			JSONRPC: "2.0",
			Result:  json.RawMessage(result),
			ID:      req.ID,
		})
	})
}

func newTestClient(t *testing.T, responses map[string]string) *Client {
	t.Helper()
	server := httptest.NewServer(rpcHandler(t, responses))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{RPCURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClient_RequiresURL(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for missing URL")
	}
}

func TestFetchAsset_ParsesAttributes(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"getAsset": `{
			"address": "camp1",
			"name": "Film",
			"symbol": "FILM",
			"owner": "creator",
			"attributes": {"status": "draft", "goal": "1200"}
		}`,
	})

	asset, err := client.FetchAsset(context.Background(), "camp1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if asset.Address != "camp1" || asset.Name != "Film" || asset.Owner != "creator" {
		t.Fatalf("asset %+v", asset)
	}
	if asset.Attributes["status"] != "draft" || asset.Attributes["goal"] != "1200" {
		t.Fatalf("attributes %v", asset.Attributes)
	}
}

func TestFetchAsset_NotFound(t *testing.T) {
	client := newTestClient(t, nil)

	_, err := client.FetchAsset(context.Background(), "missing")
	if !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestCall_SurfacesRPCError(t *testing.T) {
	client := newTestClient(t, nil)

	_, err := client.Call(context.Background(), "anything", nil)
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *RPCError, got %v", err)
	}
	if rpcErr.Code != codeAssetNotFound {
		t.Fatalf("code %d", rpcErr.Code)
	}
}

func TestTransfer(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"transfer": `{"signature": "sig123"}`,
	})

	receipt, err := client.Transfer(context.Background(), "a", "b", 100)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if receipt.Signature != "sig123" {
		t.Fatalf("signature %q", receipt.Signature)
	}

	if _, err := client.Transfer(context.Background(), "a", "b", -1); err == nil {
		t.Fatal("expected error for negative amount")
	}
}

func TestCreateAsset_RequiresAddress(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"createAsset": `{}`,
	})
	if _, err := client.CreateAsset(context.Background(), AssetSpec{Name: "Film"}); err == nil {
		t.Fatal("expected error for empty address in response")
	}
}

func TestListCollectionAssets(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"listCollectionAssets": `{
			"assets": [
				{"address": "t1", "owner": "alice", "collection": "col"},
				{"address": "t2", "owner": "bob", "collection": "col"}
			]
		}`,
	})

	assets, err := client.ListCollectionAssets(context.Background(), "col", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(assets) != 2 || assets[0].Address != "t1" || assets[1].Owner != "bob" {
		t.Fatalf("assets %+v", assets)
	}
}

func TestCreateIssuer_RejectsNegativeItems(t *testing.T) {
	client := newTestClient(t, nil)
	if _, err := client.CreateIssuer(context.Background(), "col", -1, "burn"); err == nil {
		t.Fatal("expected error for negative items")
	}
}
