// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/forgelight-labs/campaign_layer/internal/app/domain/registry"
	"github.com/forgelight-labs/campaign_layer/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.CampaignStore = (*Store)(nil)
var _ storage.ReceiptStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// --- CampaignStore ----------------------------------------------------------

func (s *Store) UpsertSnapshot(ctx context.Context, snap registry.Snapshot) (registry.Snapshot, error) {
	now := time.Now().UTC()
	snap.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO campaign_snapshots (
			address, name, creator_wallet, status, goal,
			total_pledges, refunded_pledges, total_deposited, currently_deposited,
			last_synced_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (address) DO UPDATE SET
			name = EXCLUDED.name,
			creator_wallet = EXCLUDED.creator_wallet,
			status = EXCLUDED.status,
			goal = EXCLUDED.goal,
			total_pledges = EXCLUDED.total_pledges,
			refunded_pledges = EXCLUDED.refunded_pledges,
			total_deposited = EXCLUDED.total_deposited,
			currently_deposited = EXCLUDED.currently_deposited,
			last_synced_at = EXCLUDED.last_synced_at,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at
	`, snap.Address, snap.Name, snap.CreatorWallet, snap.Status, snap.Goal,
		snap.TotalPledges, snap.RefundedPledges, snap.TotalDeposited, snap.CurrentlyDeposited,
		snap.LastSyncedAt, now).Scan(&snap.CreatedAt)
	if err != nil {
		return registry.Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) GetSnapshot(ctx context.Context, address string) (registry.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT address, name, creator_wallet, status, goal,
		       total_pledges, refunded_pledges, total_deposited, currently_deposited,
		       last_synced_at, created_at, updated_at
		FROM campaign_snapshots
		WHERE address = $1
	`, address)

	var snap registry.Snapshot
	if err := scanSnapshot(row, &snap); err != nil {
		return registry.Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) ListSnapshots(ctx context.Context) ([]registry.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT address, name, creator_wallet, status, goal,
		       total_pledges, refunded_pledges, total_deposited, currently_deposited,
		       last_synced_at, created_at, updated_at
		FROM campaign_snapshots
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []registry.Snapshot
	for rows.Next() {
		var snap registry.Snapshot
		if err := scanSnapshot(rows, &snap); err != nil {
			return nil, err
		}
		result = append(result, snap)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row scanner, snap *registry.Snapshot) error {
	return row.Scan(
		&snap.Address, &snap.Name, &snap.CreatorWallet, &snap.Status, &snap.Goal,
		&snap.TotalPledges, &snap.RefundedPledges, &snap.TotalDeposited, &snap.CurrentlyDeposited,
		&snap.LastSyncedAt, &snap.CreatedAt, &snap.UpdatedAt,
	)
}

// --- ReceiptStore -----------------------------------------------------------

func (s *Store) CreateReceipt(ctx context.Context, rec registry.Receipt) (registry.Receipt, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO campaign_receipts (
			id, campaign_address, kind, token_address, wallet,
			amount, order_number, signature, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, rec.CampaignAddress, rec.Kind, rec.TokenAddress, rec.Wallet,
		rec.Amount, rec.OrderNumber, rec.Signature, rec.CreatedAt)
	if err != nil {
		return registry.Receipt{}, err
	}
	return rec, nil
}

func (s *Store) ListReceipts(ctx context.Context, campaignAddress string) ([]registry.Receipt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, campaign_address, kind, token_address, wallet,
		       amount, order_number, signature, created_at
		FROM campaign_receipts
		WHERE campaign_address = $1
		ORDER BY created_at
	`, campaignAddress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []registry.Receipt
	for rows.Next() {
		var rec registry.Receipt
		if err := rows.Scan(
			&rec.ID, &rec.CampaignAddress, &rec.Kind, &rec.TokenAddress, &rec.Wallet,
			&rec.Amount, &rec.OrderNumber, &rec.Signature, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}
