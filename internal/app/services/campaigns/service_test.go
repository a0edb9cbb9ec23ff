package campaigns

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/forgelight-labs/campaign_layer/internal/app/domain/campaign"
	"github.com/forgelight-labs/campaign_layer/internal/app/domain/registry"
	"github.com/forgelight-labs/campaign_layer/internal/app/storage/memory"
	"github.com/forgelight-labs/campaign_layer/internal/chain"
)

// fakeChain implements AssetStore, Ledger, and TokenIssuer in memory, the
// same way the real client fronts all three behind one endpoint.
type fakeChain struct {
	assets map[string]chain.Asset
	seq    int

	transfers   []fakeTransfer
	issuerItems int64

	failTransfer error
	failMint     error
	failUpdate   error
}

type fakeTransfer struct {
	source      string
	destination string
	amount      int64
}

func newFakeChain() *fakeChain {
	return &fakeChain{assets: make(map[string]chain.Asset)}
}

func (f *fakeChain) next(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeChain) FetchAsset(_ context.Context, address string) (chain.Asset, error) {
	asset, ok := f.assets[address]
	if !ok {
		return chain.Asset{}, fmt.Errorf("%w: %s", chain.ErrAssetNotFound, address)
	}
	return asset, nil
}

func (f *fakeChain) CreateAsset(_ context.Context, spec chain.AssetSpec) (string, error) {
	address := f.next("asset")
	attrs := make(map[string]string, len(spec.Attributes))
	for k, v := range spec.Attributes {
		attrs[k] = v
	}
	f.assets[address] = chain.Asset{
		Address:     address,
		Name:        spec.Name,
		Symbol:      spec.Symbol,
		Description: spec.Description,
		Owner:       spec.Owner,
		Collection:  spec.Collection,
		Attributes:  attrs,
	}
	return address, nil
}

func (f *fakeChain) UpdateAttributes(_ context.Context, address string, attrs map[string]string) error {
	if f.failUpdate != nil {
		return f.failUpdate
	}
	asset, ok := f.assets[address]
	if !ok {
		return fmt.Errorf("%w: %s", chain.ErrAssetNotFound, address)
	}
	copied := make(map[string]string, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	asset.Attributes = copied
	f.assets[address] = asset
	return nil
}

func (f *fakeChain) ListCollectionAssets(_ context.Context, collection, owner string) ([]chain.Asset, error) {
	var out []chain.Asset
	for _, asset := range f.assets {
		if asset.Collection != collection {
			continue
		}
		if owner != "" && asset.Owner != owner {
			continue
		}
		out = append(out, asset)
	}
	return out, nil
}

func (f *fakeChain) Transfer(_ context.Context, source, destination string, amount int64) (chain.Receipt, error) {
	if f.failTransfer != nil {
		return chain.Receipt{}, f.failTransfer
	}
	f.transfers = append(f.transfers, fakeTransfer{source, destination, amount})
	return chain.Receipt{Signature: f.next("sig")}, nil
}

func (f *fakeChain) EscrowAccount(_ context.Context, assetAddress string) (string, error) {
	return "escrow-" + assetAddress, nil
}

func (f *fakeChain) CreateCollection(_ context.Context, name, symbol string) (string, error) {
	address := f.next("col")
	f.assets[address] = chain.Asset{Address: address, Name: name, Symbol: symbol}
	return address, nil
}

func (f *fakeChain) Mint(_ context.Context, collection, owner, name string) (string, error) {
	if f.failMint != nil {
		return "", f.failMint
	}
	address := f.next("token")
	f.assets[address] = chain.Asset{Address: address, Name: name, Owner: owner, Collection: collection}
	return address, nil
}

func (f *fakeChain) Burn(_ context.Context, token, collection, authority string) error {
	asset, ok := f.assets[token]
	if !ok {
		return fmt.Errorf("%w: %s", chain.ErrAssetNotFound, token)
	}
	if asset.Collection != collection {
		return fmt.Errorf("token %s not in collection %s", token, collection)
	}
	delete(f.assets, token)
	return nil
}

func (f *fakeChain) CreateIssuer(_ context.Context, collection string, items int64, burnCollection string) (string, error) {
	f.issuerItems = items
	return f.next("issuer"), nil
}

func (f *fakeChain) IssueReward(_ context.Context, issuer, rewardCollection, pledgeToken, owner string) (string, error) {
	if _, ok := f.assets[pledgeToken]; !ok {
		return "", fmt.Errorf("%w: %s", chain.ErrAssetNotFound, pledgeToken)
	}
	delete(f.assets, pledgeToken)
	address := f.next("reward")
	f.assets[address] = chain.Asset{Address: address, Owner: owner, Collection: rewardCollection}
	return address, nil
}

func newTestService(f *fakeChain, store *memory.Store, now time.Time) *Service {
	return New(f, f, f, store, store, nil).WithClock(func() time.Time { return now })
}

func createActive(t *testing.T, svc *Service, start time.Time) string {
	t.Helper()
	created, err := svc.Create(context.Background(), CreateParams{
		Name:             "Film",
		Symbol:           "FILM",
		Description:      "a film",
		CreatorWallet:    "creator",
		Goal:             1200,
		DurationMonths:   12,
		ProjectStartDate: start.Unix(),
		BasePrice:        100,
		BondingSlope:     10,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Initialize(context.Background(), created.Address, "creator"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return created.Address
}

func TestCreate_AppliesDefaultPricing(t *testing.T) {
	f := newFakeChain()
	svc := newTestService(f, memory.New(), time.Now())

	created, err := svc.Create(context.Background(), CreateParams{
		Name:           "Film",
		CreatorWallet:  "creator",
		Goal:           100,
		DurationMonths: 2,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.BasePrice != DefaultBasePrice || created.BondingSlope != DefaultBondingSlope {
		t.Fatalf("defaults not applied: base %d slope %d", created.BasePrice, created.BondingSlope)
	}
	if created.Status() != campaign.StatusDraft {
		t.Fatalf("status %s", created.Status())
	}
}

func TestPledge_MovesFundsMintsAndCommits(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	f := newFakeChain()
	store := memory.New()
	svc := newTestService(f, store, now)
	address := createActive(t, svc, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))

	first, err := svc.Pledge(context.Background(), address, "backer")
	if err != nil {
		t.Fatalf("pledge: %v", err)
	}
	if first.Price != 100 || first.Number != 0 {
		t.Fatalf("first pledge %+v", first)
	}

	second, err := svc.Pledge(context.Background(), address, "backer")
	if err != nil {
		t.Fatalf("second pledge: %v", err)
	}
	if second.Price != 110 || second.Number != 1 {
		t.Fatalf("second pledge %+v", second)
	}

	if len(f.transfers) != 2 {
		t.Fatalf("%d transfers", len(f.transfers))
	}
	if f.transfers[0].source != "backer" || f.transfers[0].destination != "escrow-"+address {
		t.Fatalf("funds did not move into escrow: %+v", f.transfers[0])
	}

	current, err := svc.Get(context.Background(), address)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.TotalPledges != 2 || current.CurrentlyDeposited != 210 {
		t.Fatalf("committed counters %+v", current)
	}

	// Pledge names carry the pre-increment counter.
	token := f.assets[first.Address]
	if token.Name != "Pledge #0" {
		t.Fatalf("token name %q", token.Name)
	}

	snap, err := store.GetSnapshot(context.Background(), address)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.TotalPledges != 2 {
		t.Fatalf("registry snapshot pledges %d", snap.TotalPledges)
	}

	receipts, err := store.ListReceipts(context.Background(), address)
	if err != nil {
		t.Fatalf("receipts: %v", err)
	}
	if len(receipts) != 2 || receipts[0].Kind != registry.KindPledge {
		t.Fatalf("journal: %+v", receipts)
	}
}

func TestPledge_FailedTransferLeavesNoTrace(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	f := newFakeChain()
	store := memory.New()
	svc := newTestService(f, store, now)
	address := createActive(t, svc, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))

	f.failTransfer = errors.New("ledger down")
	if _, err := svc.Pledge(context.Background(), address, "backer"); err == nil {
		t.Fatal("expected pledge to fail")
	}

	current, err := svc.Get(context.Background(), address)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.TotalPledges != 0 {
		t.Fatalf("counters advanced on failed transfer: %d", current.TotalPledges)
	}
	collection, _ := current.PledgesCollection()
	tokens, _ := f.ListCollectionAssets(context.Background(), collection, "")
	if len(tokens) != 0 {
		t.Fatalf("%d tokens minted after failed transfer", len(tokens))
	}
}

func TestPledge_FailedMintLeavesDetectableDrift(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	f := newFakeChain()
	svc := newTestService(f, memory.New(), now)
	address := createActive(t, svc, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))

	f.failMint = errors.New("mint down")
	if _, err := svc.Pledge(context.Background(), address, "backer"); err == nil {
		t.Fatal("expected pledge to fail")
	}

	// Funds moved but the snapshot was never written. The counter stays
	// behind the transfer; exactly the drift the reconciler looks for.
	if len(f.transfers) != 1 {
		t.Fatalf("%d transfers", len(f.transfers))
	}
	if got := f.assets[address].Attributes["totalPledges"]; got != "0" {
		t.Fatalf("snapshot written after failed mint: totalPledges=%s", got)
	}
}

func TestRefund_VerifiesOwnershipBeforeEffects(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	f := newFakeChain()
	svc := newTestService(f, memory.New(), now)
	address := createActive(t, svc, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))

	minted, err := svc.Pledge(context.Background(), address, "backer")
	if err != nil {
		t.Fatalf("pledge: %v", err)
	}
	transfersBefore := len(f.transfers)

	err = svc.Refund(context.Background(), address, minted.Address, "thief")
	if !errors.Is(err, campaign.ErrUnauthorized) {
		t.Fatalf("refund by non-owner: %v", err)
	}
	if len(f.transfers) != transfersBefore {
		t.Fatal("funds moved on rejected refund")
	}

	if err := svc.Refund(context.Background(), address, minted.Address, "backer"); err != nil {
		t.Fatalf("refund: %v", err)
	}
	last := f.transfers[len(f.transfers)-1]
	if last.destination != "backer" || last.amount != 100 {
		t.Fatalf("refund transfer %+v", last)
	}
	if _, ok := f.assets[minted.Address]; ok {
		t.Fatal("pledge token not burned")
	}

	current, err := svc.Get(context.Background(), address)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.RefundedPledges != 1 || current.CurrentlyDeposited != 0 {
		t.Fatalf("counters after refund %+v", current)
	}
}

func TestWithdraw_BatchClaimsDueOrders(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	f := newFakeChain()
	svc := newTestService(f, memory.New(), now)
	address := createActive(t, svc, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))

	// Three pledges deposit 100+110+120 = 330, covering the three due
	// orders of 100 each.
	for i := 0; i < 3; i++ {
		if _, err := svc.Pledge(context.Background(), address, "backer"); err != nil {
			t.Fatalf("pledge %d: %v", i, err)
		}
	}

	claimed, err := svc.Withdraw(context.Background(), address, "creator")
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if len(claimed) != 3 {
		t.Fatalf("%d orders claimed, want 3", len(claimed))
	}
	for i, order := range claimed {
		if order.OrderNumber != i+1 || order.Amount != 100 {
			t.Fatalf("claimed order %+v", order)
		}
	}

	current, err := svc.Get(context.Background(), address)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.Status() != campaign.StatusWorkInProgress {
		t.Fatalf("status %s", current.Status())
	}
	if current.CurrentlyDeposited != 30 {
		t.Fatalf("deposited after withdraw %d", current.CurrentlyDeposited)
	}
	for _, order := range current.PaymentOrders[:3] {
		if order.Status != campaign.OrderClaimed {
			t.Fatalf("order %d status %s", order.OrderNumber, order.Status)
		}
	}
	if current.PaymentOrders[3].Status != campaign.OrderUnclaimed {
		t.Fatal("undue order claimed")
	}

	// A second withdraw finds nothing due.
	if _, err := svc.Withdraw(context.Background(), address, "creator"); !errors.Is(err, campaign.ErrInvalidCampaignState) {
		t.Fatalf("withdraw on wip campaign: %v", err)
	}
}

func TestWithdraw_NothingDue(t *testing.T) {
	start := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC) // before the start date
	f := newFakeChain()
	svc := newTestService(f, memory.New(), now)
	address := createActive(t, svc, start)

	if _, err := svc.Pledge(context.Background(), address, "backer"); err != nil {
		t.Fatalf("pledge: %v", err)
	}
	if _, err := svc.Withdraw(context.Background(), address, "creator"); !errors.Is(err, campaign.ErrOrderNotClaimable) {
		t.Fatalf("withdraw before due date: %v", err)
	}
}

func TestFinalize_SizesIssuerToNetSupply(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	f := newFakeChain()
	svc := newTestService(f, memory.New(), now)
	address := createActive(t, svc, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))

	var pledges []string
	for i := 0; i < 3; i++ {
		minted, err := svc.Pledge(context.Background(), address, "backer")
		if err != nil {
			t.Fatalf("pledge %d: %v", i, err)
		}
		pledges = append(pledges, minted.Address)
	}
	if err := svc.Refund(context.Background(), address, pledges[2], "backer"); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if _, err := svc.Withdraw(context.Background(), address, "creator"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	if _, err := svc.Finalize(context.Background(), address, "stranger"); !errors.Is(err, campaign.ErrUnauthorized) {
		t.Fatalf("finalize by stranger: %v", err)
	}

	final, err := svc.Finalize(context.Background(), address, "creator")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if final.Status() != campaign.StatusFinalized {
		t.Fatalf("status %s", final.Status())
	}
	if f.issuerItems != 2 {
		t.Fatalf("issuer sized to %d, want net supply 2", f.issuerItems)
	}
}

func TestClaim_ExchangesPledgeForReward(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	f := newFakeChain()
	store := memory.New()
	svc := newTestService(f, store, now)
	address := createActive(t, svc, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))

	minted, err := svc.Pledge(context.Background(), address, "backer")
	if err != nil {
		t.Fatalf("pledge: %v", err)
	}

	// Claims only work once finalized.
	if _, err := svc.Claim(context.Background(), address, minted.Address, "backer"); !errors.Is(err, campaign.ErrInvalidCampaignState) {
		t.Fatalf("claim before finalize: %v", err)
	}

	if _, err := svc.Withdraw(context.Background(), address, "creator"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	final, err := svc.Finalize(context.Background(), address, "creator")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if _, err := svc.Claim(context.Background(), address, minted.Address, "thief"); !errors.Is(err, campaign.ErrUnauthorized) {
		t.Fatalf("claim by non-owner: %v", err)
	}

	reward, err := svc.Claim(context.Background(), address, minted.Address, "backer")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, ok := f.assets[minted.Address]; ok {
		t.Fatal("pledge survived the claim")
	}

	detail, err := final.AuthorizeClaim()
	if err != nil {
		t.Fatalf("finalized detail: %v", err)
	}
	rewardAsset := f.assets[reward.Address]
	if rewardAsset.Collection != detail.RewardsCollection || rewardAsset.Owner != "backer" {
		t.Fatalf("reward asset %+v", rewardAsset)
	}

	rewards, err := svc.Rewards(context.Background(), address, "backer")
	if err != nil {
		t.Fatalf("list rewards: %v", err)
	}
	if len(rewards) != 1 {
		t.Fatalf("%d rewards listed", len(rewards))
	}
}

func TestGet_UnknownCampaign(t *testing.T) {
	svc := newTestService(newFakeChain(), memory.New(), time.Now())
	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, chain.ErrAssetNotFound) {
		t.Fatalf("get unknown: %v", err)
	}
}

func TestPledges_ListsOwnerTokens(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	f := newFakeChain()
	svc := newTestService(f, memory.New(), now)
	address := createActive(t, svc, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))

	if _, err := svc.Pledge(context.Background(), address, "alice"); err != nil {
		t.Fatalf("pledge: %v", err)
	}
	if _, err := svc.Pledge(context.Background(), address, "bob"); err != nil {
		t.Fatalf("pledge: %v", err)
	}

	alice, err := svc.Pledges(context.Background(), address, "alice")
	if err != nil {
		t.Fatalf("list pledges: %v", err)
	}
	if len(alice) != 1 {
		t.Fatalf("alice holds %d pledges", len(alice))
	}

	all, err := svc.Pledges(context.Background(), address, "")
	if err != nil {
		t.Fatalf("list all pledges: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("%d pledges in collection", len(all))
	}
}

func TestWithdraw_CommitsAfterEveryOrder(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	f := newFakeChain()
	svc := newTestService(f, memory.New(), now)
	address := createActive(t, svc, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))

	for i := 0; i < 3; i++ {
		if _, err := svc.Pledge(context.Background(), address, "backer"); err != nil {
			t.Fatalf("pledge %d: %v", i, err)
		}
	}
	transfersBefore := len(f.transfers)

	// The ledger fails after the first order settles.
	failAfterOne := &countingLedgerFail{fake: f, failFrom: 2}
	svcPartial := New(f, failAfterOne, f, nil, nil, nil).WithClock(func() time.Time { return now })

	claimed, err := svcPartial.Withdraw(context.Background(), address, "creator")
	if err == nil {
		t.Fatal("expected withdraw to fail mid-batch")
	}
	if len(claimed) != 1 {
		t.Fatalf("%d orders settled before failure", len(claimed))
	}

	// The first order's claim was committed; the campaign is still active
	// with the remaining orders intact.
	current, err := svc.Get(context.Background(), address)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.Status() != campaign.StatusActive {
		t.Fatalf("status %s", current.Status())
	}
	if current.PaymentOrders[0].Status != campaign.OrderClaimed {
		t.Fatal("first order claim lost")
	}
	if current.PaymentOrders[1].Status != campaign.OrderUnclaimed {
		t.Fatal("second order claimed despite failed transfer")
	}
	if current.CurrentlyDeposited != 230 {
		t.Fatalf("deposited %d after partial withdraw", current.CurrentlyDeposited)
	}
	if len(f.transfers) != transfersBefore+1 {
		t.Fatalf("transfer count %d", len(f.transfers))
	}

	// A retry picks up where the batch stopped.
	claimed, err = svc.Withdraw(context.Background(), address, "creator")
	if err != nil {
		t.Fatalf("retry withdraw: %v", err)
	}
	if len(claimed) != 2 || claimed[0].OrderNumber != 2 {
		t.Fatalf("retry claimed %+v", claimed)
	}
}

// countingLedgerFail proxies the fake ledger and fails from the Nth transfer.
type countingLedgerFail struct {
	fake     *fakeChain
	calls    int
	failFrom int
}

func (c *countingLedgerFail) Transfer(ctx context.Context, source, destination string, amount int64) (chain.Receipt, error) {
	c.calls++
	if c.calls >= c.failFrom {
		return chain.Receipt{}, errors.New("ledger down")
	}
	return c.fake.Transfer(ctx, source, destination, amount)
}

func (c *countingLedgerFail) EscrowAccount(ctx context.Context, assetAddress string) (string, error) {
	return c.fake.EscrowAccount(ctx, assetAddress)
}

func TestSnapshotEncoding_OrdersSurviveCommit(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	f := newFakeChain()
	svc := newTestService(f, memory.New(), now)
	address := createActive(t, svc, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))

	for i := 0; i < 3; i++ {
		if _, err := svc.Pledge(context.Background(), address, "backer"); err != nil {
			t.Fatalf("pledge %d: %v", i, err)
		}
	}
	if _, err := svc.Withdraw(context.Background(), address, "creator"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	attrs := f.assets[address].Attributes
	for number := 1; number <= 3; number++ {
		key := "paymentOrder_" + strconv.Itoa(number)
		if attrs[key] != "claimed" {
			t.Fatalf("attribute %s = %q", key, attrs[key])
		}
	}
	if attrs["paymentOrder_4"] != "unclaimed" {
		t.Fatalf("attribute paymentOrder_4 = %q", attrs["paymentOrder_4"])
	}
}
