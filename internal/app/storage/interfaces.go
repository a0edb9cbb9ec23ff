// Package storage defines the persistence interfaces the campaign services
// depend on, with in-memory and PostgreSQL implementations in subpackages.
package storage

import (
	"context"

	"github.com/forgelight-labs/campaign_layer/internal/app/domain/registry"
)

// CampaignStore persists the locally observed campaign snapshots.
type CampaignStore interface {
	UpsertSnapshot(ctx context.Context, snap registry.Snapshot) (registry.Snapshot, error)
	GetSnapshot(ctx context.Context, address string) (registry.Snapshot, error)
	ListSnapshots(ctx context.Context) ([]registry.Snapshot, error)
}

// ReceiptStore persists the command journal.
type ReceiptStore interface {
	CreateReceipt(ctx context.Context, rec registry.Receipt) (registry.Receipt, error)
	ListReceipts(ctx context.Context, campaignAddress string) ([]registry.Receipt, error)
}
