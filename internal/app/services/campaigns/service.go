// Package campaigns drives the campaign lifecycle: each command loads the
// current snapshot from the asset store, runs it through the domain
// transition, and commits the side effects in hardest-to-reverse-first
// order (funds, then tokens, then the snapshot write). There is no shared
// transaction across the collaborators; a crash mid-command leaves a
// detectable inconsistency the reconciler repairs, never a double-spend.
package campaigns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/forgelight-labs/campaign_layer/internal/app/domain/campaign"
	"github.com/forgelight-labs/campaign_layer/internal/app/domain/pledge"
	"github.com/forgelight-labs/campaign_layer/internal/app/domain/registry"
	"github.com/forgelight-labs/campaign_layer/internal/app/metrics"
	"github.com/forgelight-labs/campaign_layer/internal/app/storage"
	"github.com/forgelight-labs/campaign_layer/internal/chain"
	"github.com/forgelight-labs/campaign_layer/pkg/logger"
)

// AssetStore is the external store holding the authoritative campaign
// snapshot as a flat attribute bag.
type AssetStore interface {
	FetchAsset(ctx context.Context, address string) (chain.Asset, error)
	CreateAsset(ctx context.Context, spec chain.AssetSpec) (string, error)
	UpdateAttributes(ctx context.Context, address string, attrs map[string]string) error
	ListCollectionAssets(ctx context.Context, collection, owner string) ([]chain.Asset, error)
}

// Ledger moves native currency between accounts.
type Ledger interface {
	Transfer(ctx context.Context, source, destination string, amount int64) (chain.Receipt, error)
	EscrowAccount(ctx context.Context, assetAddress string) (string, error)
}

// TokenIssuer mints and burns collectible tokens.
type TokenIssuer interface {
	CreateCollection(ctx context.Context, name, symbol string) (string, error)
	Mint(ctx context.Context, collection, owner, name string) (string, error)
	Burn(ctx context.Context, token, collection, authority string) error
	CreateIssuer(ctx context.Context, collection string, items int64, burnCollection string) (string, error)
	IssueReward(ctx context.Context, issuer, rewardCollection, pledgeToken, owner string) (string, error)
}

// Service executes campaign commands against the external collaborators.
type Service struct {
	assets    AssetStore
	ledger    Ledger
	tokens    TokenIssuer
	snapshots storage.CampaignStore
	receipts  storage.ReceiptStore
	log       *logger.Logger
	now       func() time.Time
}

// New constructs a campaign command service.
func New(assets AssetStore, ledger Ledger, tokens TokenIssuer, snapshots storage.CampaignStore, receipts storage.ReceiptStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("campaigns")
	}
	return &Service{
		assets:    assets,
		ledger:    ledger,
		tokens:    tokens,
		snapshots: snapshots,
		receipts:  receipts,
		log:       log,
		now:       time.Now,
	}
}

// WithClock overrides the service clock; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// observe records command metrics; deferred by every command entry point.
func observe(command string, start time.Time, errp *error) {
	metrics.RecordCommand(command, time.Since(start), *errp)
}

// CreateParams are the immutable campaign terms fixed at creation.
type CreateParams struct {
	Name             string
	Symbol           string
	Description      string
	CreatorWallet    string
	Goal             int64
	DurationMonths   int
	ProjectStartDate int64
	BasePrice        int64
	BondingSlope     int64
}

// Default pricing terms applied when a creator does not set their own.
const (
	DefaultBasePrice    int64 = 100_000_000
	DefaultBondingSlope int64 = 10_000_000
)

// Create mints the campaign asset in draft status and returns the decoded
// campaign.
func (s *Service) Create(ctx context.Context, params CreateParams) (_ campaign.Campaign, err error) {
	defer observe("create", time.Now(), &err)

	if params.BasePrice == 0 {
		params.BasePrice = DefaultBasePrice
	}
	if params.BondingSlope == 0 {
		params.BondingSlope = DefaultBondingSlope
	}

	draft, err := campaign.NewDraft("", params.Name, params.Symbol, params.Description,
		params.CreatorWallet, params.Goal, params.DurationMonths,
		params.ProjectStartDate, params.BasePrice, params.BondingSlope)
	if err != nil {
		return campaign.Campaign{}, err
	}

	address, err := s.assets.CreateAsset(ctx, chain.AssetSpec{
		Name:        draft.Name,
		Symbol:      draft.Symbol,
		Description: draft.Description,
		Owner:       draft.CreatorWallet,
		Attributes:  draft.Encode(),
	})
	if err != nil {
		return campaign.Campaign{}, fmt.Errorf("create campaign asset: %w", err)
	}
	draft.Address = address

	s.recordSnapshot(ctx, draft)
	s.log.WithField("campaign", address).
		WithField("creator", draft.CreatorWallet).
		WithField("goal", draft.Goal).
		Info("campaign created")
	return draft, nil
}

// Get loads and decodes the current campaign snapshot.
func (s *Service) Get(ctx context.Context, address string) (campaign.Campaign, error) {
	return s.load(ctx, address)
}

// Initialize moves a draft campaign to active: it allocates the pledge
// collection, zeroes the counters, and lays down the payout schedule.
func (s *Service) Initialize(ctx context.Context, address, caller string) (_ campaign.Campaign, err error) {
	defer observe("initialize", time.Now(), &err)

	current, err := s.load(ctx, address)
	if err != nil {
		return campaign.Campaign{}, err
	}
	if err := current.AuthorizeInitialize(caller); err != nil {
		return campaign.Campaign{}, err
	}

	collection, err := s.tokens.CreateCollection(ctx, current.Name+" Pledges", "PLEDGE")
	if err != nil {
		return campaign.Campaign{}, fmt.Errorf("create pledges collection: %w", err)
	}

	next, err := current.Initialize(caller, collection)
	if err != nil {
		return campaign.Campaign{}, err
	}
	if err := s.assets.UpdateAttributes(ctx, address, next.Encode()); err != nil {
		return campaign.Campaign{}, fmt.Errorf("write campaign snapshot: %w", err)
	}

	s.recordSnapshot(ctx, next)
	s.log.WithField("campaign", address).
		WithField("pledges_collection", collection).
		Info("campaign initialized")
	return next, nil
}

// Pledge prices the next pledge from the current snapshot, moves the funds
// into the campaign escrow, mints the pledge token, and commits the advanced
// counters. Funds move first: a crash after the debit leaves fewer live
// pledges than the counters imply, which the reconciler can detect.
func (s *Service) Pledge(ctx context.Context, address, backerWallet string) (_ pledge.Pledge, err error) {
	defer observe("pledge", time.Now(), &err)

	current, err := s.load(ctx, address)
	if err != nil {
		return pledge.Pledge{}, err
	}

	next, price, err := current.ApplyPledge()
	if err != nil {
		return pledge.Pledge{}, err
	}
	collection, _ := current.PledgesCollection()

	escrow, err := s.ledger.EscrowAccount(ctx, address)
	if err != nil {
		return pledge.Pledge{}, err
	}
	receipt, err := s.ledger.Transfer(ctx, backerWallet, escrow, price)
	if err != nil {
		return pledge.Pledge{}, fmt.Errorf("transfer pledge funds: %w", err)
	}

	name := fmt.Sprintf("Pledge #%d", current.TotalPledges)
	token, err := s.tokens.Mint(ctx, collection, backerWallet, name)
	if err != nil {
		return pledge.Pledge{}, fmt.Errorf("mint pledge: %w", err)
	}

	if err := s.assets.UpdateAttributes(ctx, address, next.Encode()); err != nil {
		return pledge.Pledge{}, fmt.Errorf("write campaign snapshot: %w", err)
	}

	s.journal(ctx, registry.Receipt{
		CampaignAddress: address,
		Kind:            registry.KindPledge,
		TokenAddress:    token,
		Wallet:          backerWallet,
		Amount:          price,
		Signature:       receipt.Signature,
	})
	s.recordSnapshot(ctx, next)
	s.log.WithField("campaign", address).
		WithField("pledge", token).
		WithField("price", price).
		Info("pledge minted")

	return pledge.Pledge{
		Address:         token,
		Owner:           backerWallet,
		CampaignAddress: address,
		Number:          current.TotalPledges,
		Price:           price,
		CreatedAt:       s.now().UTC(),
	}, nil
}

// Refund values one live pledge from the current snapshot, returns the funds
// to the backer, burns the pledge token, and commits the advanced counters.
// Ownership is verified before any side effect.
func (s *Service) Refund(ctx context.Context, address, pledgeAddress, backerWallet string) (err error) {
	defer observe("refund", time.Now(), &err)

	current, err := s.load(ctx, address)
	if err != nil {
		return err
	}
	collection, ok := current.PledgesCollection()
	if !ok {
		return fmt.Errorf("%w: campaign has no pledges collection", campaign.ErrInvalidCampaignState)
	}

	token, err := s.assets.FetchAsset(ctx, pledgeAddress)
	if err != nil {
		return fmt.Errorf("fetch pledge: %w", err)
	}
	if token.Owner != backerWallet {
		return fmt.Errorf("%w: pledge %s is not owned by caller", campaign.ErrUnauthorized, pledgeAddress)
	}
	if token.Collection != collection {
		return fmt.Errorf("pledge %s does not belong to campaign %s", pledgeAddress, address)
	}

	next, value, err := current.ApplyRefund()
	if err != nil {
		return err
	}

	escrow, err := s.ledger.EscrowAccount(ctx, address)
	if err != nil {
		return err
	}
	receipt, err := s.ledger.Transfer(ctx, escrow, backerWallet, value)
	if err != nil {
		return fmt.Errorf("transfer refund: %w", err)
	}

	if err := s.tokens.Burn(ctx, pledgeAddress, collection, backerWallet); err != nil {
		return fmt.Errorf("burn pledge: %w", err)
	}

	if err := s.assets.UpdateAttributes(ctx, address, next.Encode()); err != nil {
		return fmt.Errorf("write campaign snapshot: %w", err)
	}

	s.journal(ctx, registry.Receipt{
		CampaignAddress: address,
		Kind:            registry.KindRefund,
		TokenAddress:    pledgeAddress,
		Wallet:          backerWallet,
		Amount:          value,
		Signature:       receipt.Signature,
	})
	s.recordSnapshot(ctx, next)
	s.log.WithField("campaign", address).
		WithField("pledge", pledgeAddress).
		WithField("refund", value).
		Info("pledge refunded")
	return nil
}

// ClaimedOrder reports one payment order settled by a withdraw.
type ClaimedOrder struct {
	OrderNumber int
	Amount      int64
	Signature   string
}

// Withdraw batch-claims every due unclaimed payment order covered by the
// deposited balance, transferring each monthly amount to the creator, then
// moves the campaign to work in progress. The snapshot is written after
// every order so a crash between orders loses at most the in-flight one.
func (s *Service) Withdraw(ctx context.Context, address, creatorWallet string) (_ []ClaimedOrder, err error) {
	defer observe("withdraw", time.Now(), &err)

	current, err := s.load(ctx, address)
	if err != nil {
		return nil, err
	}
	if err := current.AuthorizeWithdraw(creatorWallet); err != nil {
		return nil, err
	}

	now := s.now()
	claimable := current.ClaimableOrders(now)
	if len(claimable) == 0 {
		return nil, fmt.Errorf("%w: no payment orders are due and funded", campaign.ErrOrderNotClaimable)
	}

	escrow, err := s.ledger.EscrowAccount(ctx, address)
	if err != nil {
		return nil, err
	}

	var claimed []ClaimedOrder
	for _, order := range claimable {
		next, settled, err := current.ClaimOrder(order.OrderNumber, now)
		if err != nil {
			return claimed, err
		}

		receipt, err := s.ledger.Transfer(ctx, escrow, creatorWallet, settled.Amount)
		if err != nil {
			return claimed, fmt.Errorf("transfer payment order %d: %w", settled.OrderNumber, err)
		}
		if err := s.assets.UpdateAttributes(ctx, address, next.Encode()); err != nil {
			return claimed, fmt.Errorf("write campaign snapshot: %w", err)
		}

		s.journal(ctx, registry.Receipt{
			CampaignAddress: address,
			Kind:            registry.KindWithdrawal,
			Wallet:          creatorWallet,
			Amount:          settled.Amount,
			OrderNumber:     settled.OrderNumber,
			Signature:       receipt.Signature,
		})
		claimed = append(claimed, ClaimedOrder{
			OrderNumber: settled.OrderNumber,
			Amount:      settled.Amount,
			Signature:   receipt.Signature,
		})
		current = next
	}

	final, err := current.FinishWithdraw()
	if err != nil {
		return claimed, err
	}
	if err := s.assets.UpdateAttributes(ctx, address, final.Encode()); err != nil {
		return claimed, fmt.Errorf("write campaign snapshot: %w", err)
	}

	s.recordSnapshot(ctx, final)
	s.log.WithField("campaign", address).
		WithField("orders", len(claimed)).
		Info("campaign funds withdrawn")
	return claimed, nil
}

// Finalize allocates the rewards collection and the reward issuance
// facility sized to the live pledge count, completing the lifecycle.
func (s *Service) Finalize(ctx context.Context, address, creatorWallet string) (_ campaign.Campaign, err error) {
	defer observe("finalize", time.Now(), &err)

	current, err := s.load(ctx, address)
	if err != nil {
		return campaign.Campaign{}, err
	}
	if err := current.AuthorizeFinalize(creatorWallet); err != nil {
		return campaign.Campaign{}, err
	}
	pledgesCollection, _ := current.PledgesCollection()

	rewardsCollection, err := s.tokens.CreateCollection(ctx, current.Name+" Rewards", "REWARD")
	if err != nil {
		return campaign.Campaign{}, fmt.Errorf("create rewards collection: %w", err)
	}
	issuer, err := s.tokens.CreateIssuer(ctx, rewardsCollection, current.NetSupply(), pledgesCollection)
	if err != nil {
		return campaign.Campaign{}, fmt.Errorf("create reward issuer: %w", err)
	}

	next, err := current.Finalize(creatorWallet, rewardsCollection, issuer)
	if err != nil {
		return campaign.Campaign{}, err
	}
	if err := s.assets.UpdateAttributes(ctx, address, next.Encode()); err != nil {
		return campaign.Campaign{}, fmt.Errorf("write campaign snapshot: %w", err)
	}

	s.recordSnapshot(ctx, next)
	s.log.WithField("campaign", address).
		WithField("rewards_collection", rewardsCollection).
		WithField("rewards", current.NetSupply()).
		Info("campaign finalized")
	return next, nil
}

// Claim exchanges a live pledge for a reward: the pledge is burned and a
// reward minted to the backer in one issuer operation. Campaign counters
// are unchanged.
func (s *Service) Claim(ctx context.Context, address, pledgeAddress, backerWallet string) (_ pledge.Reward, err error) {
	defer observe("claim", time.Now(), &err)

	current, err := s.load(ctx, address)
	if err != nil {
		return pledge.Reward{}, err
	}
	finalized, err := current.AuthorizeClaim()
	if err != nil {
		return pledge.Reward{}, err
	}

	token, err := s.assets.FetchAsset(ctx, pledgeAddress)
	if err != nil {
		return pledge.Reward{}, fmt.Errorf("fetch pledge: %w", err)
	}
	if token.Owner != backerWallet {
		return pledge.Reward{}, fmt.Errorf("%w: pledge %s is not owned by caller", campaign.ErrUnauthorized, pledgeAddress)
	}
	if token.Collection != finalized.PledgesCollection {
		return pledge.Reward{}, fmt.Errorf("pledge %s does not belong to campaign %s", pledgeAddress, address)
	}

	reward, err := s.tokens.IssueReward(ctx, finalized.RewardsIssuer, finalized.RewardsCollection, pledgeAddress, backerWallet)
	if err != nil {
		return pledge.Reward{}, fmt.Errorf("issue reward: %w", err)
	}

	s.journal(ctx, registry.Receipt{
		CampaignAddress: address,
		Kind:            registry.KindClaim,
		TokenAddress:    reward,
		Wallet:          backerWallet,
	})
	s.log.WithField("campaign", address).
		WithField("pledge", pledgeAddress).
		WithField("reward", reward).
		Info("pledge claimed")

	return pledge.Reward{
		Address:         reward,
		Owner:           backerWallet,
		CampaignAddress: address,
		PledgeAddress:   pledgeAddress,
		CreatedAt:       s.now().UTC(),
	}, nil
}

// Pledges lists a backer's live pledges in the campaign's pledge collection.
func (s *Service) Pledges(ctx context.Context, address, owner string) ([]pledge.Pledge, error) {
	current, err := s.load(ctx, address)
	if err != nil {
		return nil, err
	}
	collection, ok := current.PledgesCollection()
	if !ok {
		return nil, fmt.Errorf("%w: campaign has no pledges collection", campaign.ErrInvalidCampaignState)
	}

	assets, err := s.assets.ListCollectionAssets(ctx, collection, owner)
	if err != nil {
		return nil, err
	}
	pledges := make([]pledge.Pledge, 0, len(assets))
	for _, asset := range assets {
		pledges = append(pledges, pledge.Pledge{
			Address:         asset.Address,
			Owner:           asset.Owner,
			CampaignAddress: address,
		})
	}
	return pledges, nil
}

// Rewards lists a backer's rewards from a finalized campaign.
func (s *Service) Rewards(ctx context.Context, address, owner string) ([]pledge.Reward, error) {
	current, err := s.load(ctx, address)
	if err != nil {
		return nil, err
	}
	finalized, err := current.AuthorizeClaim()
	if err != nil {
		return nil, err
	}

	assets, err := s.assets.ListCollectionAssets(ctx, finalized.RewardsCollection, owner)
	if err != nil {
		return nil, err
	}
	rewards := make([]pledge.Reward, 0, len(assets))
	for _, asset := range assets {
		rewards = append(rewards, pledge.Reward{
			Address:         asset.Address,
			Owner:           asset.Owner,
			CampaignAddress: address,
		})
	}
	return rewards, nil
}

// load fetches and decodes the authoritative snapshot.
func (s *Service) load(ctx context.Context, address string) (campaign.Campaign, error) {
	if strings.TrimSpace(address) == "" {
		return campaign.Campaign{}, fmt.Errorf("campaign address is required")
	}
	asset, err := s.assets.FetchAsset(ctx, address)
	if err != nil {
		return campaign.Campaign{}, fmt.Errorf("fetch campaign: %w", err)
	}
	return campaign.Decode(campaign.AssetHeader{
		Address:     asset.Address,
		Name:        asset.Name,
		Symbol:      asset.Symbol,
		Description: asset.Description,
	}, asset.Attributes)
}

// recordSnapshot mirrors the committed snapshot into the local registry.
// Registry failures are logged, not surfaced: the asset store already holds
// the truth.
func (s *Service) recordSnapshot(ctx context.Context, c campaign.Campaign) {
	if s.snapshots == nil {
		return
	}
	_, err := s.snapshots.UpsertSnapshot(ctx, registry.Snapshot{
		Address:            c.Address,
		Name:               c.Name,
		CreatorWallet:      c.CreatorWallet,
		Status:             string(c.Status()),
		Goal:               c.Goal,
		TotalPledges:       c.TotalPledges,
		RefundedPledges:    c.RefundedPledges,
		TotalDeposited:     c.TotalDeposited,
		CurrentlyDeposited: c.CurrentlyDeposited,
		LastSyncedAt:       s.now().UTC(),
	})
	if err != nil {
		s.log.WithError(err).WithField("campaign", c.Address).Warn("record snapshot failed")
	}
}

func (s *Service) journal(ctx context.Context, rec registry.Receipt) {
	if s.receipts == nil {
		return
	}
	if _, err := s.receipts.CreateReceipt(ctx, rec); err != nil {
		s.log.WithError(err).WithField("campaign", rec.CampaignAddress).Warn("journal receipt failed")
	}
}
