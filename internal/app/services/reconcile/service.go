// Package reconcile repairs the detectable inconsistencies a partial
// external commit leaves behind. Commands order their side effects so that
// funds move before tokens and tokens before the snapshot write; a crash in
// between leaves the live token count and the campaign counters out of
// step. The reconciler re-derives the missed counter updates along the
// bonding curve and writes a corrected snapshot. It never moves funds.
package reconcile

import (
	"context"
	"fmt"

	"github.com/forgelight-labs/campaign_layer/internal/app/domain/campaign"
	"github.com/forgelight-labs/campaign_layer/internal/app/metrics"
	"github.com/forgelight-labs/campaign_layer/internal/app/services/campaigns"
	"github.com/forgelight-labs/campaign_layer/pkg/logger"
)

// Service checks campaigns for counter drift and repairs their snapshots.
type Service struct {
	assets campaigns.AssetStore
	log    *logger.Logger
}

// New constructs a reconciliation service.
func New(assets campaigns.AssetStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("reconcile")
	}
	return &Service{assets: assets, log: log}
}

// Report describes the outcome of one reconciliation pass over a campaign.
type Report struct {
	CampaignAddress string
	LiveTokens      int64
	NetSupply       int64
	// Drift is live tokens minus what the counters imply. Positive means a
	// pledge was minted but never counted; negative means a pledge was
	// burned but its refund never counted.
	Drift    int64
	Repaired bool
}

// Reconcile compares the campaign's live pledge tokens against its counters
// and, when they disagree, writes a snapshot with the missed transitions
// re-applied.
func (s *Service) Reconcile(ctx context.Context, address string) (Report, error) {
	asset, err := s.assets.FetchAsset(ctx, address)
	if err != nil {
		return Report{}, fmt.Errorf("fetch campaign: %w", err)
	}
	current, err := campaign.Decode(campaign.AssetHeader{
		Address:     asset.Address,
		Name:        asset.Name,
		Symbol:      asset.Symbol,
		Description: asset.Description,
	}, asset.Attributes)
	if err != nil {
		return Report{}, err
	}

	collection, ok := current.PledgesCollection()
	if !ok {
		// Draft campaigns have no tokens to drift against.
		return Report{CampaignAddress: address}, nil
	}

	tokens, err := s.assets.ListCollectionAssets(ctx, collection, "")
	if err != nil {
		return Report{}, fmt.Errorf("list pledge tokens: %w", err)
	}

	report := Report{
		CampaignAddress: address,
		LiveTokens:      int64(len(tokens)),
		NetSupply:       current.NetSupply(),
	}
	report.Drift = report.LiveTokens - report.NetSupply
	if report.Drift == 0 {
		return report, nil
	}

	repaired, err := repair(current, report.Drift)
	if err != nil {
		metrics.RecordDrift(false)
		return report, err
	}
	if err := s.assets.UpdateAttributes(ctx, address, repaired.Encode()); err != nil {
		metrics.RecordDrift(false)
		return report, fmt.Errorf("write repaired snapshot: %w", err)
	}

	report.Repaired = true
	metrics.RecordDrift(true)
	s.log.WithField("campaign", address).
		WithField("drift", report.Drift).
		Warn("campaign counters repaired")
	return report, nil
}

// repair re-applies the transitions the counters missed, one unit at a
// time so each step prices off the snapshot it would have seen.
func repair(current campaign.Campaign, drift int64) (campaign.Campaign, error) {
	switch {
	case drift > 0:
		// Pledges were minted but never counted.
		for i := int64(0); i < drift; i++ {
			price := current.PledgePrice()
			current.TotalPledges++
			current.TotalDeposited += price
			current.CurrentlyDeposited += price
		}
	case drift < 0:
		// Pledges were burned but their refunds never counted.
		for i := drift; i < 0; i++ {
			value, err := current.RefundValue()
			if err != nil {
				return campaign.Campaign{}, err
			}
			if current.CurrentlyDeposited < value {
				return campaign.Campaign{}, fmt.Errorf("%w: repair refund of %d exceeds deposited %d",
					campaign.ErrInsufficientFunds, value, current.CurrentlyDeposited)
			}
			current.RefundedPledges++
			current.CurrentlyDeposited -= value
		}
	}
	if err := current.CheckInvariants(); err != nil {
		return campaign.Campaign{}, err
	}
	return current, nil
}
